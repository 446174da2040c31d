package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"trading-journal/apperr"
	"trading-journal/config"
	"trading-journal/database"
	"trading-journal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DBConfig{Driver: config.DriverSQLite, DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newJournal(t *testing.T) (*Journal, *gorm.DB) {
	db := newTestDB(t)
	return NewJournal(db, zaptest.NewLogger(t)), db
}

func newSample(t *testing.T, j *Journal, owner uint) *models.TradeSample {
	t.Helper()
	s := &models.TradeSample{}
	s.SetDefaults()
	s.StartDate = models.NewDate(2024, time.January, 1)
	require.NoError(t, j.Samples.Create(context.Background(), owner, s))
	return s
}

func trade(pnl string) *models.Trade {
	t := &models.Trade{
		Date:              time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
		Instrument:        "XAUUSD",
		Outcome:           models.OutcomeWin,
		RealizedPnL:       decimal.NewNullDecimal(decimal.RequireFromString(pnl)),
		RealizedRMultiple: decimal.NewNullDecimal(decimal.RequireFromString("1.5")),
	}
	t.SetDefaults()
	return t
}

func samplePnL(t *testing.T, j *Journal, owner uint, id uuid.UUID) string {
	t.Helper()
	s, err := j.Samples.Get(context.Background(), owner, id)
	require.NoError(t, err)
	return s.PnL.StringFixed(2)
}

func TestSamplePnLFollowsTrades(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()
	s := newSample(t, j, 1)
	assert.Equal(t, "0.00", samplePnL(t, j, 1, s.ID))

	win := trade("50.00")
	loss := trade("-20.00")
	require.NoError(t, j.Trades.Create(ctx, 1, s.ID, win))
	require.NoError(t, j.Trades.Create(ctx, 1, s.ID, loss))
	assert.Equal(t, "30.00", samplePnL(t, j, 1, s.ID))

	require.NoError(t, j.Trades.Delete(ctx, 1, s.ID, loss.ID))
	assert.Equal(t, "50.00", samplePnL(t, j, 1, s.ID))

	updated, err := j.Trades.Update(ctx, 1, uuid.Nil, win.ID, func(tr *models.Trade) error {
		tr.RealizedPnL = decimal.NewNullDecimal(decimal.RequireFromString("12.34"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, s.ID, updated.SampleID)
	assert.Equal(t, "12.34", samplePnL(t, j, 1, s.ID))

	require.NoError(t, j.Trades.Delete(ctx, 1, uuid.Nil, win.ID))
	assert.Equal(t, "0.00", samplePnL(t, j, 1, s.ID))
}

func TestSampleUpdateKeepsDerivedPnL(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()
	s := newSample(t, j, 1)
	require.NoError(t, j.Trades.Create(ctx, 1, s.ID, trade("25.50")))

	got, err := j.Samples.Update(ctx, 1, s.ID, func(item *models.TradeSample) error {
		item.Name = "London open"
		item.PnL = decimal.NewFromInt(9999)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "London open", got.Name)
	assert.Equal(t, "25.50", got.PnL.StringFixed(2))
	assert.Len(t, got.Trades, 1)
}

func TestSamplePreloadsTradesNewestFirst(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()
	s := newSample(t, j, 1)

	older := trade("1")
	newer := trade("2")
	newer.Date = older.Date.Add(24 * time.Hour)
	require.NoError(t, j.Trades.Create(ctx, 1, s.ID, older))
	require.NoError(t, j.Trades.Create(ctx, 1, s.ID, newer))

	got, err := j.Samples.Get(ctx, 1, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Trades, 2)
	assert.Equal(t, newer.ID, got.Trades[0].ID)
	assert.Equal(t, older.ID, got.Trades[1].ID)
}

func TestTradesOfForeignSampleAreHidden(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()
	s := newSample(t, j, 1)
	tr := trade("10")
	require.NoError(t, j.Trades.Create(ctx, 1, s.ID, tr))

	_, err := j.Trades.List(ctx, 2, s.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, j.Trades.Create(ctx, 2, s.ID, trade("1")), apperr.ErrNotFound)
	_, err = j.Trades.Get(ctx, 2, uuid.Nil, tr.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, j.Trades.Delete(ctx, 2, uuid.Nil, tr.ID), apperr.ErrNotFound)

	all, err := j.Trades.ListAll(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, "10.00", samplePnL(t, j, 1, s.ID))
}

func TestTradeStrategyMustBeOwnPlaybook(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()
	s := newSample(t, j, 1)

	theirs := &models.Playbook{Title: "theirs"}
	theirs.SetDefaults()
	require.NoError(t, j.Playbooks.Create(ctx, 2, theirs))

	tr := trade("5")
	tr.StrategyID = uuid.NullUUID{UUID: theirs.ID, Valid: true}
	err := j.Trades.Create(ctx, 1, s.ID, tr)
	v, ok := apperr.AsValidation(err)
	require.True(t, ok, "%v", err)
	assert.Contains(t, v.Fields, "strategy")
	assert.Equal(t, "0.00", samplePnL(t, j, 1, s.ID))
}

func TestConcurrentTradeCreatesSumCorrectly(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()
	s := newSample(t, j, 1)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- j.Trades.Create(ctx, 1, s.ID, trade("1.25"))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, "25.00", samplePnL(t, j, 1, s.ID))
}

func TestSampleDeleteRemovesTrades(t *testing.T) {
	j, db := newJournal(t)
	ctx := context.Background()
	s := newSample(t, j, 1)
	require.NoError(t, j.Trades.Create(ctx, 1, s.ID, trade("3")))

	require.NoError(t, j.Samples.Delete(ctx, 1, s.ID))
	var n int64
	require.NoError(t, db.Model(&models.Trade{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPlaybookDeleteDetachesTradesAndLogs(t *testing.T) {
	j, db := newJournal(t)
	ctx := context.Background()
	s := newSample(t, j, 1)

	p := &models.Playbook{Title: "Breakout"}
	p.SetDefaults()
	require.NoError(t, j.Playbooks.Create(ctx, 1, p))

	added, err := NewInstruments(db).Add(ctx, "DAX")
	require.NoError(t, err)
	require.EqualValues(t, 1, added)
	var dax models.Instrument
	require.NoError(t, db.Where("name = ?", "DAX").First(&dax).Error)

	tr := trade("7")
	tr.StrategyID = uuid.NullUUID{UUID: p.ID, Valid: true}
	require.NoError(t, j.Trades.Create(ctx, 1, s.ID, tr))
	log := &models.TradeLog{
		StrategyID:   p.ID,
		InstrumentID: dax.ID,
		Outcome:      models.OutcomeWin,
		RealizedR:    decimal.NewNullDecimal(decimal.NewFromInt(2)),
	}
	require.NoError(t, j.TradeLogs.Create(ctx, 1, log))

	require.NoError(t, j.Playbooks.Delete(ctx, 1, p.ID))

	got, err := j.Trades.Get(ctx, 1, s.ID, tr.ID)
	require.NoError(t, err)
	assert.False(t, got.StrategyID.Valid)
	logs, err := j.TradeLogs.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestTradeLogChecksReferencesAndStampsDate(t *testing.T) {
	j, db := newJournal(t)
	ctx := context.Background()

	p := &models.Playbook{Title: "Fade"}
	p.SetDefaults()
	require.NoError(t, j.Playbooks.Create(ctx, 1, p))

	bad := &models.TradeLog{
		StrategyID:   p.ID,
		InstrumentID: uuid.New(),
		Outcome:      models.OutcomeLoss,
		RealizedR:    decimal.NewNullDecimal(decimal.NewFromInt(-1)),
	}
	v, ok := apperr.AsValidation(j.TradeLogs.Create(ctx, 1, bad))
	require.True(t, ok)
	assert.Contains(t, v.Fields, "instrument")

	_, err := NewInstruments(db).Add(ctx, "BTC")
	require.NoError(t, err)
	var btc models.Instrument
	require.NoError(t, db.Where("name = ?", "BTC").First(&btc).Error)

	good := &models.TradeLog{
		StrategyID:   p.ID,
		InstrumentID: btc.ID,
		Outcome:      models.OutcomeLoss,
		RealizedR:    decimal.NewNullDecimal(decimal.NewFromInt(-1)),
	}
	require.NoError(t, j.TradeLogs.Create(ctx, 1, good))
	assert.WithinDuration(t, time.Now(), good.Date, time.Minute)
	stamped := good.Date

	updated, err := j.TradeLogs.Update(ctx, 1, good.ID, func(l *models.TradeLog) error {
		l.Date = stamped.Add(-48 * time.Hour)
		l.Outcome = models.OutcomeWin
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeWin, updated.Outcome)
	assert.True(t, stamped.Equal(updated.Date))

	// Someone else's playbook is as good as missing.
	_, err = j.TradeLogs.Update(ctx, 1, good.ID, func(l *models.TradeLog) error {
		l.StrategyID = uuid.New()
		return nil
	})
	v, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "strategy")
}

func TestReportCardDatesAreUniquePerOwner(t *testing.T) {
	j, _ := newJournal(t)
	ctx := context.Background()

	card := func() *models.DailyReportCard {
		c := &models.DailyReportCard{}
		c.SetDefaults()
		c.Date = models.NewDate(2024, time.March, 4)
		return c
	}
	first := card()
	require.NoError(t, j.ReportCards.Create(ctx, 1, first))

	v, ok := apperr.AsValidation(j.ReportCards.Create(ctx, 1, card()))
	require.True(t, ok)
	assert.Contains(t, v.Fields, "date")

	require.NoError(t, j.ReportCards.Create(ctx, 2, card()))

	// Saving a card onto its own date is not a duplicate.
	_, err := j.ReportCards.Update(ctx, 1, first.ID, func(c *models.DailyReportCard) error {
		c.Goal = "no revenge trades"
		return nil
	})
	require.NoError(t, err)
}

func TestRegisterSeedsBiasesOnce(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, zaptest.NewLogger(t))
	j := NewJournal(db, zaptest.NewLogger(t))
	ctx := context.Background()

	u, err := users.Register(ctx, "  Trader@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", u.Email)

	biases, err := j.MarketBiases.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, biases, len(models.DefaultBiasInstruments))
	for _, b := range biases {
		assert.Equal(t, models.BiasNeutral, b.Bias)
	}

	seeded, err := users.SeedBiases(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, seeded)

	require.NoError(t, j.MarketBiases.Delete(ctx, u.ID, biases[0].ID))
	seeded, err = users.SeedBiases(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, seeded)

	_, err = users.SeedBiases(ctx, u.ID+100)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMarketBiasInstrumentIsUniquePerOwner(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, zaptest.NewLogger(t))
	j := NewJournal(db, zaptest.NewLogger(t))
	ctx := context.Background()

	u, err := users.Register(ctx, "bias@example.com", "password123")
	require.NoError(t, err)

	dup := &models.MarketBias{Instrument: "XAUUSD", Bias: models.BiasBullish}
	v, ok := apperr.AsValidation(j.MarketBiases.Create(ctx, u.ID, dup))
	require.True(t, ok)
	assert.Contains(t, v.Fields, "instrument")

	fresh := &models.MarketBias{Instrument: "EURUSD", Bias: models.BiasRange}
	require.NoError(t, j.MarketBiases.Create(ctx, u.ID, fresh))
}

func TestRegisterAuthenticateDelete(t *testing.T) {
	db := newTestDB(t)
	users := NewUsers(db, zaptest.NewLogger(t))
	j := NewJournal(db, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := users.Register(ctx, "not-an-email", "short")
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Fields, "email")
	assert.Contains(t, v.Fields, "password")

	u, err := users.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)
	_, err = users.Register(ctx, "A@example.com", "password123")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := users.Authenticate(ctx, "a@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = users.Authenticate(ctx, "a@example.com", "wrong password")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = users.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	s := newSample(t, j, u.ID)
	require.NoError(t, j.Trades.Create(ctx, u.ID, s.ID, trade("4")))
	require.NoError(t, j.Reminders.Create(ctx, u.ID, &models.Reminder{Text: "journal every trade"}))

	require.NoError(t, users.Delete(ctx, u.ID))
	assert.ErrorIs(t, users.Delete(ctx, u.ID), apperr.ErrNotFound)
	_, err = users.Get(ctx, u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for _, model := range []any{&models.Trade{}, &models.TradeSample{}, &models.Reminder{}, &models.MarketBias{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
}

func TestInstrumentsAddIsIdempotent(t *testing.T) {
	s := NewInstruments(newTestDB(t))
	ctx := context.Background()

	n, err := s.Add(ctx, "XAUUSD", "DAX", "XAUUSD", " ")
	assert.Error(t, err)
	assert.Zero(t, n)

	n, err = s.Add(ctx, "XAUUSD", "DAX", "XAUUSD")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.Add(ctx, "DAX", "NASDAQ")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"XAUUSD", "DAX", "NASDAQ"}, []string{list[0].Name, list[1].Name, list[2].Name})

	got, err := s.Get(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "DAX", got.Name)
	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSampleLocksReleaseEntries(t *testing.T) {
	var l sampleLocks
	id := uuid.New()
	unlock := l.lock(id)
	assert.Len(t, l.held, 1)
	unlock()
	assert.Empty(t, l.held)
}
