package approval

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	approvalerrors "people-desk/internal/approval/errors"
	"people-desk/internal/identity"
	"people-desk/internal/report"
	"people-desk/internal/shared/apperror"
	"people-desk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

// Handler serves one request kind; the same type is mounted once per kind.
type Handler struct {
	kind    Kind
	service Service
	loc     *time.Location
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(kind Kind, service Service, loc *time.Location, logger ...*zap.Logger) *Handler {
	return NewHandlerWithRedis(kind, service, loc, nil, logger...)
}

func NewHandlerWithRedis(kind Kind, service Service, loc *time.Location, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("approval.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.handler")
	}
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		kind:    kind,
		service: service,
		loc:     loc,
		rdb:     rdb,
		logger:  l.With(zap.String("kind", string(kind))),
	}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	}
	// Ordering conflicts are expected between approvers.
	if approvalerrors.IsPrecondition(err) {
		h.logger.Info("approval request conflict", append(fields, zap.String("error_kind", apperror.CodePreconditionFailed))...)
	} else {
		h.logger.Warn("approval request failed", fields...)
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) caller(c *gin.Context) (identity.Identity, bool) {
	id, ok := identity.FromGin(c)
	if !ok {
		h.writeServiceError(c, apperror.ErrUnauthorized)
	}
	return id, ok
}

func (h *Handler) Submit(c *gin.Context) {
	lockKey := c.GetString("idempotency_lock_key")
	cacheKey := c.GetString("idempotency_cache_key")
	if h.rdb != nil && lockKey != "" {
		defer h.rdb.Del(c.Request.Context(), lockKey)
	}

	caller, ok := h.caller(c)
	if !ok {
		return
	}
	h.logger.Debug("http submit request", zap.String("user_id", caller.UserIDString()))

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http submit request validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), h.kind, caller, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.rdb != nil && cacheKey != "" {
		if payload, marshalErr := json.Marshal(resp); marshalErr == nil {
			_ = h.rdb.Set(c.Request.Context(), cacheKey, payload, idempotencyTTL).Err()
		}
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) ListMine(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.ListMine(c.Request.Context(), h.kind, caller)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	writePage(c, resp, q)
}

// ListPending returns the queue awaiting the given stage.
func (h *Handler) ListPending(stage Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, sq, ok := h.bindScope(c)
		if !ok {
			return
		}

		resp, err := h.service.ListPending(c.Request.Context(), h.kind, stage, sq)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}

		writePage(c, resp, q)
	}
}

// ListHistory returns requests the given stage has already decided.
func (h *Handler) ListHistory(stage Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, sq, ok := h.bindScope(c)
		if !ok {
			return
		}

		resp, err := h.service.ListHistory(c.Request.Context(), h.kind, stage, sq)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}

		writePage(c, resp, q)
	}
}

// ListToday pins scope=today regardless of the query string.
func (h *Handler) ListToday(stage Stage, history bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, sq, ok := h.bindScope(c)
		if !ok {
			return
		}
		sq.Scope = ScopeToday

		list := h.service.ListPending
		if history {
			list = h.service.ListHistory
		}
		resp, err := list(c.Request.Context(), h.kind, stage, sq)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}

		writePage(c, resp, q)
	}
}

func (h *Handler) bindScope(c *gin.Context) (ListQuery, ScopeQuery, bool) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return q, ScopeQuery{}, false
	}

	scope, err := ParseScope(q.Scope)
	if err != nil {
		h.writeServiceError(c, err)
		return q, ScopeQuery{}, false
	}
	loc, err := ResolveLocation(q.Timezone, h.loc)
	if err != nil {
		h.writeServiceError(c, err)
		return q, ScopeQuery{}, false
	}

	return q, ScopeQuery{Scope: scope, Location: loc}, true
}

func (h *Handler) Decide(stage Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := h.caller(c)
		if !ok {
			return
		}
		id := c.Param("id")

		var req DecideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("http decide request validation failed", zap.String("id", id), zap.Error(err))
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}

		resp, err := h.service.Decide(c.Request.Context(), h.kind, stage, caller, id, req.Decision)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}

		response.Success(c, http.StatusOK, resp, nil)
	}
}

func (h *Handler) Report(c *gin.Context) {
	var q ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	rep, err := h.service.MonthlyReport(c.Request.Context(), h.kind, q.Month)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rep.Header, rep.Rows); err != nil {
		h.logger.Error("write report csv failed", zap.String("month", rep.Month), zap.Error(err))
		h.writeServiceError(c, apperror.ErrInternal)
		return
	}

	c.Header("Content-Disposition", report.AttachmentDisposition(rep.Filename()))
	c.Data(http.StatusOK, report.ContentTypeCSV, buf.Bytes())
}

func writePage(c *gin.Context, items []RequestResponse, q ListQuery) {
	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	start, end := response.Paginate(len(items), page, pageSize)
	meta := response.NewPaginationMeta(int64(len(items)), page, pageSize)
	response.Success(c, http.StatusOK, items[start:end], &meta)
}
