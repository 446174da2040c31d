package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"trading-journal/apperr"
	"trading-journal/models"
	"trading-journal/service"
)

// Trades serves trades both nested under a sample and as one flat list of
// the caller's trades.
type Trades struct {
	Service *service.TradeService
	Logger  *zap.Logger
}

func (h *Trades) Register(g *gin.RouterGroup) {
	g.GET("/samples/:id/trades/", h.listSample)
	g.POST("/samples/:id/trades/", h.create)
	g.GET("/samples/:id/trades/:trade_id/", h.get)
	g.PUT("/samples/:id/trades/:trade_id/", h.replace)
	g.PATCH("/samples/:id/trades/:trade_id/", h.patch)
	g.DELETE("/samples/:id/trades/:trade_id/", h.delete)

	g.GET("/trades/", h.listAll)
	g.GET("/trades/:id/", h.get)
	g.PUT("/trades/:id/", h.replace)
	g.PATCH("/trades/:id/", h.patch)
	g.DELETE("/trades/:id/", h.delete)
}

// target reads the sample and trade ids from either route shape. The sample
// is uuid.Nil on the flat routes.
func target(c *gin.Context) (sampleID, tradeID uuid.UUID, ok bool) {
	if c.Param("trade_id") == "" {
		tradeID, ok = pathID(c, "id")
		return uuid.Nil, tradeID, ok
	}
	if sampleID, ok = pathID(c, "id"); !ok {
		return uuid.Nil, uuid.Nil, false
	}
	tradeID, ok = pathID(c, "trade_id")
	return sampleID, tradeID, ok
}

func (h *Trades) listSample(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	sampleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	trades, err := h.Service.List(c.Request.Context(), owner, sampleID)
	if err != nil {
		writeError(c, h.Logger, "list trades", err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (h *Trades) listAll(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	trades, err := h.Service.ListAll(c.Request.Context(), owner)
	if err != nil {
		writeError(c, h.Logger, "list trades", err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (h *Trades) create(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	sampleID, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, h.Logger, "create trade", apperr.Invalid(apperr.NonFieldErrors, "unreadable body"))
		return
	}
	var t models.Trade
	if err := fill(raw, &t, true); err != nil {
		writeError(c, h.Logger, "create trade", err)
		return
	}
	if err := h.Service.Create(c.Request.Context(), owner, sampleID, &t); err != nil {
		writeError(c, h.Logger, "create trade", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Trades) get(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	sampleID, tradeID, ok := target(c)
	if !ok {
		return
	}
	t, err := h.Service.Get(c.Request.Context(), owner, sampleID, tradeID)
	if err != nil {
		writeError(c, h.Logger, "get trade", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Trades) replace(c *gin.Context) { h.update(c, true) }

func (h *Trades) patch(c *gin.Context) { h.update(c, false) }

func (h *Trades) update(c *gin.Context, full bool) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	sampleID, tradeID, ok := target(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, h.Logger, "update trade", apperr.Invalid(apperr.NonFieldErrors, "unreadable body"))
		return
	}
	t, err := h.Service.Update(c.Request.Context(), owner, sampleID, tradeID, func(t *models.Trade) error {
		if full {
			*t = models.Trade{}
		}
		return fill(raw, t, full)
	})
	if err != nil {
		writeError(c, h.Logger, "update trade", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Trades) delete(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	sampleID, tradeID, ok := target(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), owner, sampleID, tradeID); err != nil {
		writeError(c, h.Logger, "delete trade", err)
		return
	}
	c.Status(http.StatusNoContent)
}
