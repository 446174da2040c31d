// Package handlers exposes the journal over HTTP with gin.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trading-journal/auth"
	"trading-journal/middleware"
	"trading-journal/models"
	"trading-journal/service"
)

type Deps struct {
	DB          *gorm.DB
	Journal     *service.Journal
	Users       *service.Users
	Instruments *service.Instruments
	Issuer      *auth.Issuer
	Logger      *zap.Logger
	CORSOrigin  string
}

// NewRouter wires every route. Everything under /api except the account
// endpoints requires an access token.
func NewRouter(d Deps) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger), middleware.Recovery(d.Logger), middleware.CORS(d.CORSOrigin))

	checks := map[string]Check{
		"database": func(ctx context.Context) error {
			return d.DB.WithContext(ctx).Exec("SELECT 1").Error
		},
	}
	if rs, ok := d.Issuer.Store.(*auth.RedisStore); ok {
		checks["redis"] = rs.Ping
	}
	r.GET("/health", health(checks, d.Logger))

	api := r.Group("/api")
	(&Accounts{Users: d.Users, Issuer: d.Issuer, Logger: d.Logger}).Register(api)

	protected := api.Group("/", middleware.JWTAuth(d.Issuer, d.Users))
	j := d.Journal
	(&Resource[models.Playbook, *models.Playbook]{Repo: j.Playbooks, Logger: d.Logger, Name: "playbook"}).Register(protected, "/playbooks")
	(&Resource[models.TradeSample, *models.TradeSample]{Repo: j.Samples, Logger: d.Logger, Name: "sample"}).Register(protected, "/samples")
	(&Resource[models.DailyReportCard, *models.DailyReportCard]{Repo: j.ReportCards, Logger: d.Logger, Name: "report card"}).Register(protected, "/drcs")
	(&Resource[models.TradeLog, *models.TradeLog]{Repo: j.TradeLogs, Logger: d.Logger, Name: "trade log"}).Register(protected, "/trade-logs")
	(&Resource[models.Reminder, *models.Reminder]{Repo: j.Reminders, Logger: d.Logger, Name: "reminder"}).Register(protected, "/reminders")
	(&Resource[models.MarketDriver, *models.MarketDriver]{Repo: j.MarketDrivers, Logger: d.Logger, Name: "market driver"}).Register(protected, "/market-drivers")
	(&Resource[models.MarketBias, *models.MarketBias]{Repo: j.MarketBiases, Logger: d.Logger, Name: "market bias"}).Register(protected, "/market-bias")
	(&Trades{Service: j.Trades, Logger: d.Logger}).Register(protected)
	(&Instruments{Service: d.Instruments, Logger: d.Logger}).Register(protected)

	return r
}
