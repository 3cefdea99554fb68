package api

import (
	"net/http"
	"time"

	models "CallAudit/internal/domain/models"
	domrepo "CallAudit/internal/domain/repository"
	apimetrics "CallAudit/internal/service/metrics"
	"CallAudit/internal/service/ratelimit"
	"CallAudit/internal/usecase"
	xhttp "CallAudit/pkg/http"
	xlogger "CallAudit/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AuditEchoHandler exposes the simulation and validation engine over HTTP.
type AuditEchoHandler struct {
	logger    *xlogger.Logger
	simulator *usecase.PositionSimulator
	validator *usecase.SentimentValidator
	store     domrepo.ResultStore
	limiter   *ratelimit.Limiter

	// per-client request budget
	rateCapacity float64
	ratePerSec   float64
}

func NewAuditEchoHandler(
	logger *xlogger.Logger,
	simulator *usecase.PositionSimulator,
	validator *usecase.SentimentValidator,
	store domrepo.ResultStore,
) *AuditEchoHandler {
	apimetrics.Register()
	return &AuditEchoHandler{
		logger:       logger,
		simulator:    simulator,
		validator:    validator,
		store:        store,
		limiter:      ratelimit.New(),
		rateCapacity: 20,
		ratePerSec:   10,
	}
}

func (h *AuditEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/simulate", h.Simulate)
	g.POST("/validate", h.Validate)
	g.POST("/accuracy", h.Accuracy)
	g.GET("/accounts/:account/accuracy", h.AccountAccuracy)
	g.GET("/health", h.Health)
}

func (h *AuditEchoHandler) Simulate(c echo.Context) error {
	start := time.Now()
	defer func() { apimetrics.APILatency.WithLabelValues("simulate").Observe(time.Since(start).Seconds()) }()

	if !h.limiter.Allow(c.RealIP(), h.rateCapacity, h.ratePerSec) {
		apimetrics.APIErrors.WithLabelValues("simulate").Inc()
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}

	req := &models.SimulateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		apimetrics.APIErrors.WithLabelValues("simulate").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	horizon := time.Duration(req.HorizonHours) * time.Hour
	res := h.simulator.SimulateBatch(c.Request().Context(), req.Signals, req.CapitalPerPosition, horizon)

	if h.store != nil {
		if err := h.store.StoreOutcomes(c.Request().Context(), res.Outcomes); err != nil {
			// storage is best effort on this path; the caller still gets the result
			h.logger.Error("store simulation outcomes", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AuditEchoHandler) Validate(c echo.Context) error {
	start := time.Now()
	defer func() { apimetrics.APILatency.WithLabelValues("validate").Observe(time.Since(start).Seconds()) }()

	if !h.limiter.Allow(c.RealIP(), h.rateCapacity, h.ratePerSec) {
		apimetrics.APIErrors.WithLabelValues("validate").Inc()
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}

	req := &models.ValidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		apimetrics.APIErrors.WithLabelValues("validate").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	outcomes := h.validator.ValidateBatch(c.Request().Context(), req.Signals)
	records := usecase.FlattenRecords(outcomes)

	if h.store != nil && len(records) > 0 {
		if err := h.store.StoreRecords(c.Request().Context(), records); err != nil {
			h.logger.Error("store validation records", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, &models.ValidateResponse{Outcomes: outcomes, Records: records})
}

func (h *AuditEchoHandler) Accuracy(c echo.Context) error {
	start := time.Now()
	defer func() { apimetrics.APILatency.WithLabelValues("accuracy").Observe(time.Since(start).Seconds()) }()

	if !h.limiter.Allow(c.RealIP(), h.rateCapacity, h.ratePerSec) {
		apimetrics.APIErrors.WithLabelValues("accuracy").Inc()
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}

	req := &models.AccuracyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		apimetrics.APIErrors.WithLabelValues("accuracy").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	outcomes := h.validator.ValidateBatch(c.Request().Context(), req.Signals)
	records := usecase.FlattenRecords(outcomes)
	rep := usecase.AggregateAccuracy(req.Account, records)

	if h.store != nil && len(records) > 0 {
		if err := h.store.StoreRecords(c.Request().Context(), records); err != nil {
			h.logger.Error("store validation records", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, rep)
}

// AccountAccuracy reports over records already persisted for an account,
// so callers do not have to resubmit signals they validated earlier.
func (h *AuditEchoHandler) AccountAccuracy(c echo.Context) error {
	start := time.Now()
	defer func() { apimetrics.APILatency.WithLabelValues("account_accuracy").Observe(time.Since(start).Seconds()) }()

	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("result storage is not configured"))
	}
	account := c.Param("account")
	if account == "" {
		return xhttp.BadRequestResponse(c, "account is required")
	}
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), time.Now().AddDate(0, -1, 0))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), time.Now())

	records, err := h.store.RecordsByAccount(c.Request().Context(), account, from, to)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("account_accuracy").Inc()
		h.logger.Error("records lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, usecase.AggregateAccuracy(account, records))
}

func (h *AuditEchoHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
		}
	}
	return xhttp.SuccessResponse(c, status)
}
