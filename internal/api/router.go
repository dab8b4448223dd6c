// Package api exposes the history, forecast, stats and export operations
// over HTTP.
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"PriceScope/internal/apperr"
	"PriceScope/internal/export"
	"PriceScope/internal/history"
	"PriceScope/internal/logger"
	"PriceScope/internal/metrics"
	"PriceScope/internal/service"
	"PriceScope/internal/store"
)

const defaultPredictionRows = 90

// Options tunes the router.
type Options struct {
	CORSOrigin     string
	RequestTimeout time.Duration
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	// ProviderState reports the provider circuit state on /healthz when set.
	ProviderState func() string
}

// Handler serves the /api/v1 routes.
type Handler struct {
	svc *service.Service
	log *logrus.Entry
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(svc *service.Service, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cors(opts.CORSOrigin), observe(opts.Metrics), timeout(opts.RequestTimeout))

	h := &Handler{svc: svc, log: logger.WithComponent("api")}
	h.RegisterRoutes(r.Group("/api"))

	r.GET("/healthz", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if opts.ProviderState != nil {
			body["provider"] = opts.ProviderState()
		}
		c.JSON(http.StatusOK, body)
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	v1 := r.Group("/v1")
	{
		v1.GET("/stock", h.GetStock)
		v1.GET("/predict", h.Predict)
		v1.GET("/stats", h.GetStats)
		v1.GET("/export", h.Export)
		v1.GET("/predictions", h.GetPredictions)
	}
}

func (h *Handler) GetStock(c *gin.Context) {
	days, ok := intQuery(c, "days", service.DefaultHistoryDays)
	if !ok {
		return
	}
	res, err := h.svc.History(c.Request.Context(), c.Query("ticker"), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Predict(c *gin.Context) {
	days, ok := intQuery(c, "days", service.DefaultPredictDays)
	if !ok {
		return
	}
	res, err := h.svc.Predict(c.Request.Context(), c.Query("ticker"), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetStats(c *gin.Context) {
	days, ok := intQuery(c, "days", service.DefaultHistoryDays)
	if !ok {
		return
	}
	predictDays, ok := intQuery(c, "predict_days", 0)
	if !ok {
		return
	}
	st, err := h.svc.Stats(c.Request.Context(), c.Query("ticker"), days, predictDays)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		h.fail(c, apperr.Wrap(apperr.CodeInvalidInput, "Format must be csv or json", err))
		return
	}
	days, ok := intQuery(c, "days", service.DefaultHistoryDays)
	if !ok {
		return
	}
	predictDays, ok := intQuery(c, "predict_days", 0)
	if !ok {
		return
	}

	snap, err := h.svc.Snapshot(c.Request.Context(), c.Query("ticker"), days, predictDays)
	if err != nil {
		h.fail(c, err)
		return
	}

	now := h.svc.Now()
	var buf bytes.Buffer
	if format == export.FormatJSON {
		err = export.WriteJSON(&buf, snap.History.Ticker, now, snap.History.HistoricalData, snap.Predictions())
	} else {
		err = export.WriteCSV(&buf, snap.History.HistoricalData, snap.Predictions())
	}
	if err != nil {
		h.fail(c, fmt.Errorf("export %s: %w", format, err))
		return
	}

	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, export.Filename(snap.History.Ticker, format, now)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *Handler) GetPredictions(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultPredictionRows)
	if !ok {
		return
	}
	recs, err := h.svc.PredictionHistory(c.Request.Context(), c.Query("ticker"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if recs == nil {
		recs = []store.PredictionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"ticker": history.NormalizeTicker(c.Query("ticker")), "predictions": recs})
}

// StatusOf maps the error taxonomy to HTTP status codes.
func StatusOf(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeInvalidInput, apperr.CodeInsufficientData:
		return http.StatusBadRequest
	case apperr.CodeProviderUnavailable, apperr.CodeNoData:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusOf(err)
	entry := h.log.WithError(err).WithField("path", c.Request.URL.Path)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.MessageOf(err)})
}

// intQuery parses an optional integer parameter, answering 400 on garbage.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			gin.H{"error": fmt.Sprintf("%s must be an integer", name)})
		return 0, false
	}
	return v, true
}

func cors(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-Info, Apikey")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
