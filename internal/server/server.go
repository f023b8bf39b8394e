// Package server exposes the prediction engine over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/crimson-sun/vettriage/internal/engine"
	"github.com/crimson-sun/vettriage/internal/metrics"
	"github.com/crimson-sun/vettriage/internal/model"
	"github.com/crimson-sun/vettriage/internal/output"
	"github.com/crimson-sun/vettriage/internal/pipeline"
	"github.com/crimson-sun/vettriage/internal/store"
)

const (
	serviceName = "Disease Prediction API"

	errNoSymptoms = "Symptoms array is required and must not be empty"
)

// Provider hands out the shared engine, loading it on first use.
type Provider interface {
	Get() (*engine.Engine, error)
	Loaded() bool
}

// History is the read side of the prediction history store.
type History interface {
	Recent(ctx context.Context, limit int) ([]model.PredictionRecord, error)
	Get(ctx context.Context, id string) (model.PredictionRecord, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// Option configures a Server.
type Option func(*Server)

// WithOutput sends every served prediction to out.
func WithOutput(out output.Output) Option {
	return func(s *Server) { s.out = out }
}

// WithHistory enables the /history routes.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics records predictions and requests and serves /metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = m }
}

// WithVersion sets the version reported by the health check.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// Server is the HTTP front end.
type Server struct {
	echo     *echo.Echo
	provider Provider
	out      output.Output
	history  History
	metrics  *metrics.Recorder
	version  string
}

// New builds a Server and registers its routes.
func New(p Provider, opts ...Option) *Server {
	s := &Server{provider: p, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURIPath:    true,
		LogRoutePath:  true,
		LogStatus:     true,
		LogLatency:    true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))

	e.GET("/", s.health)
	e.GET("/health", s.health)
	e.POST("/predict", s.predict)
	e.GET("/model", s.modelInfo)
	e.GET("/diseases", s.diseases)
	e.GET("/diseases/:name", s.disease)
	if s.history != nil {
		e.GET("/history", s.recent)
		e.GET("/history/stats", s.historyStats)
		e.GET("/history/:id", s.record)
	}
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	s.echo = e
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	slog.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) logRequest(_ echo.Context, v middleware.RequestLoggerValues) error {
	if s.metrics != nil {
		s.metrics.ObserveHTTP(v.RoutePath, v.Status)
	}
	attrs := []any{
		"method", v.Method,
		"path", v.URIPath,
		"status", v.Status,
		"latency_ms", v.Latency.Milliseconds(),
	}
	if v.Error != nil {
		slog.Warn("request failed", append(attrs, "error", v.Error)...)
		return nil
	}
	slog.Debug("request", attrs...)
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":       "healthy",
		"service":      serviceName,
		"version":      s.version,
		"model_loaded": s.provider.Loaded(),
	})
}

// predictRequest is the /predict body. Omitted attributes take defaults.
type predictRequest struct {
	Symptoms []string `json:"symptoms"`
	model.Attributes
}

func (s *Server) predict(c echo.Context) error {
	var req predictRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.Failed(model.KindFeatureEncoding, "invalid request body"))
	}
	if len(req.Symptoms) == 0 {
		return c.JSON(http.StatusBadRequest, model.Failed(model.KindFeatureEncoding, errNoSymptoms))
	}

	eng, err := s.provider.Get()
	if err != nil {
		slog.Error("engine unavailable", "error", err)
		res := model.Failed(model.KindEngineUnavailable, "Disease prediction model is not available")
		return c.JSON(http.StatusServiceUnavailable, res)
	}

	rec := pipeline.Score(eng, "", engine.Request{Symptoms: req.Symptoms, Attributes: req.Attributes})
	if s.metrics != nil {
		s.metrics.Observe(rec.Result, rec.Latency)
	}
	if s.out != nil {
		if err := s.out.Write(c.Request().Context(), rec); err != nil {
			slog.Warn("prediction output failed", "id", rec.ID, "error", err)
		}
	}
	c.Response().Header().Set("X-Prediction-Id", rec.ID)
	return c.JSON(statusFor(rec.Result), rec.Result)
}

func statusFor(res model.Result) int {
	if res.Err == nil {
		return http.StatusOK
	}
	switch res.Err.Kind {
	case model.KindFeatureEncoding:
		return http.StatusBadRequest
	case model.KindEngineUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) modelInfo(c echo.Context) error {
	eng, err := s.provider.Get()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "model not loaded")
	}
	return c.JSON(http.StatusOK, eng.Info())
}

func (s *Server) diseases(c echo.Context) error {
	eng, err := s.provider.Get()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "model not loaded")
	}
	diseases := eng.Info().Diseases
	return c.JSON(http.StatusOK, map[string]any{
		"diseases": diseases,
		"count":    len(diseases),
		"catalog":  eng.Catalog().Stats(),
	})
}

func (s *Server) disease(c echo.Context) error {
	eng, err := s.provider.Get()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "model not loaded")
	}
	name := c.Param("name")
	rec, ok := eng.Catalog().Get(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown disease: "+name)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"disease":         name,
		"severity":        rec.Severity,
		"urgency":         rec.Urgency,
		"recommendation":  rec.Recommendation,
		"description":     rec.Description,
		"typical_animals": rec.TypicalAnimals,
	})
}

func (s *Server) recent(c echo.Context) error {
	limit := store.DefaultLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	recs, err := s.history.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recs)
}

func (s *Server) record(c echo.Context) error {
	rec, err := s.history.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "prediction not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) historyStats(c echo.Context) error {
	st, err := s.history.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}
