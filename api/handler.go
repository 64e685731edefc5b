package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/ali-shihab/marketreplay/internal/engine"
	"github.com/ali-shihab/marketreplay/internal/model"
	"github.com/ali-shihab/marketreplay/internal/normalizer"
	"github.com/ali-shihab/marketreplay/internal/push"
	"github.com/ali-shihab/marketreplay/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type Handler struct {
	loader  *engine.ScheduleLoader
	cache   *storage.ScheduleCache
	pool    *engine.BuildPool
	js      nats.JetStreamContext
	logger  *zap.Logger
	dataDir string
	open    time.Duration // session open as offset from midnight
	close   time.Duration // session close as offset from midnight
}

type HandlerOptions struct {
	Loader      *engine.ScheduleLoader
	Cache       *storage.ScheduleCache
	Pool        *engine.BuildPool
	JS          nats.JetStreamContext
	Logger      *zap.Logger
	DataDir     string
	MarketOpen  string
	MarketClose string
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	open, err := parseTimeOfDay(opts.MarketOpen)
	if err != nil {
		return nil, fmt.Errorf("invalid market open time: %w", err)
	}
	closeAt, err := parseTimeOfDay(opts.MarketClose)
	if err != nil {
		return nil, fmt.Errorf("invalid market close time: %w", err)
	}

	return &Handler{
		loader:  opts.Loader,
		cache:   opts.Cache,
		pool:    opts.Pool,
		js:      opts.JS,
		logger:  opts.Logger,
		dataDir: opts.DataDir,
		open:    open,
		close:   closeAt,
	}, nil
}

func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// window builds the session window for a trading date.
func (h *Handler) window(date string) (model.SessionWindow, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return model.SessionWindow{}, err
	}
	return model.SessionWindow{Open: day.Add(h.open), Close: day.Add(h.close)}, nil
}

// RunReplay runs one historical session end to end: schedule load (cached or
// built), full wakeup sequence, actions published to the book. Returns the
// session report.
func (h *Handler) RunReplay(c *gin.Context) {
	var req struct {
		Symbol string `json:"symbol" binding:"required"`
		Date   string `json:"date" binding:"required"` // "2006-01-02"
		File   string `json:"file" binding:"required"` // relative to DATA_DIR
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	symbol := NormalizeSymbol(req.Symbol)
	window, err := h.window(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date: " + err.Error()})
		return
	}

	schedule, err := h.loader.LoadSchedule(symbol, req.Date, filepath.Join(h.dataDir, req.File), window)
	if err != nil {
		var formatErr *normalizer.FormatError
		if errors.As(err, &formatErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": formatErr.Error()})
			return
		}
		h.logger.Error("failed to load schedule", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load schedule"})
		return
	}

	sink := push.NewActionPublisher(h.js, h.logger)
	session := engine.NewSession(symbol, schedule, window, sink, h.logger)

	// Buffer execution notifications from the book during the run; they are
	// pure bookkeeping, so applying them after the loop is equivalent.
	var (
		fillsMu sync.Mutex
		fills   []model.ExecutedTrade
	)
	sub, err := h.js.Subscribe(fmt.Sprintf("replay.executions.%s", symbol), func(msg *nats.Msg) {
		var fill model.ExecutedTrade
		if err := json.Unmarshal(msg.Data, &fill); err != nil {
			h.logger.Error("failed to unmarshal execution", zap.Error(err))
			return
		}
		fillsMu.Lock()
		fills = append(fills, fill)
		fillsMu.Unlock()
		msg.Ack()
	}, nats.ManualAck())
	if err != nil {
		h.logger.Warn("failed to subscribe to executions", zap.String("symbol", symbol), zap.Error(err))
	}

	report := session.Run()

	if sub != nil {
		sub.Unsubscribe()
	}
	fillsMu.Lock()
	for _, fill := range fills {
		session.Driver().OnExecutionNotification(fill.Timestamp, fill.FillPrice, fill.Quantity)
	}
	fillsMu.Unlock()
	if price, ok := session.Driver().LastTradePrice(); ok {
		report.LastTradePrice = price
	}

	c.JSON(http.StatusOK, report)
}

// WarmCache enqueues background schedule builds so later replay runs hit the
// cache. Returns how many jobs were accepted.
func (h *Handler) WarmCache(c *gin.Context) {
	var req struct {
		Sessions []struct {
			Symbol string `json:"symbol" binding:"required"`
			Date   string `json:"date" binding:"required"`
			File   string `json:"file" binding:"required"`
		} `json:"sessions" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accepted := 0
	for _, s := range req.Sessions {
		window, err := h.window(s.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date: " + err.Error()})
			return
		}
		if h.pool.Submit(engine.BuildJob{
			Symbol:     NormalizeSymbol(s.Symbol),
			Date:       s.Date,
			SourcePath: filepath.Join(h.dataDir, s.File),
			Window:     window,
		}) {
			accepted++
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": accepted, "submitted": len(req.Sessions)})
}

// GetSchedule summarizes a cached schedule without rebuilding anything.
func (h *Handler) GetSchedule(c *gin.Context) {
	symbol := NormalizeSymbol(c.Param("symbol"))
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter required"})
		return
	}

	schedule, err := h.cache.Load(symbol, date)
	if err != nil {
		if errors.Is(err, storage.ErrCacheMiss) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no cached schedule"})
			return
		}
		h.logger.Error("failed to read cached schedule", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	summary := gin.H{
		"symbol":  schedule.Symbol,
		"date":    schedule.Date,
		"wakeups": schedule.Len(),
		"records": schedule.Records(),
	}
	if first, ok := schedule.First(); ok {
		summary["first_wakeup"] = first
		summary["last_wakeup"] = schedule.Batches[schedule.Len()-1].Time
	}

	c.JSON(http.StatusOK, summary)
}
