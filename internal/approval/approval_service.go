package approval

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	approvalerrors "people-desk/internal/approval/errors"
	"people-desk/internal/events"
	"people-desk/internal/identity"
	"people-desk/internal/messaging/kafka"
	"people-desk/internal/shared/apperror"
	"people-desk/internal/shared/contextutil"
	"people-desk/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const aggregateType = "approval_request"

//go:generate mockgen -source=approval_service.go -destination=mock/approval_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, kind Kind, caller identity.Identity, req SubmitRequest) (RequestResponse, error)
	ListMine(ctx context.Context, kind Kind, caller identity.Identity) ([]RequestResponse, error)
	ListPending(ctx context.Context, kind Kind, stage Stage, q ScopeQuery) ([]RequestResponse, error)
	ListHistory(ctx context.Context, kind Kind, stage Stage, q ScopeQuery) ([]RequestResponse, error)
	Decide(ctx context.Context, kind Kind, stage Stage, caller identity.Identity, id, decision string) (RequestResponse, error)
	MonthlyReport(ctx context.Context, kind Kind, month string) (Report, error)
}

type Options struct {
	// AllowRedecision lets an approver overwrite a gate that already left PENDING.
	AllowRedecision bool
	// Location anchors day and month windows when the caller gives none.
	Location       *time.Location
	Now            func() time.Time
	ReportCacheTTL time.Duration
}

// Deps are optional collaborators; a nil field disables the feature it backs.
type Deps struct {
	Counter counter.Repository
	Outbox  kafka.OutboxRepository
	Redis   *redis.Client
}

type service struct {
	db              *sql.DB
	repo            Repository
	counter         counter.Repository
	outbox          kafka.OutboxRepository
	rdb             *redis.Client
	sf              *singleflight.Group
	loc             *time.Location
	now             func() time.Time
	reportTTL       time.Duration
	allowRedecision bool
	logger          *zap.Logger
}

func NewService(db *sql.DB, repo Repository, opts Options, logger ...*zap.Logger) Service {
	return NewServiceWithDeps(db, repo, Deps{}, opts, logger...)
}

func NewServiceWithDeps(db *sql.DB, repo Repository, deps Deps, opts Options, logger ...*zap.Logger) Service {
	l := zap.L().Named("approval.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.service")
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.ReportCacheTTL
	if ttl <= 0 {
		ttl = defaultReportCacheTTL
	}

	return &service{
		db:              db,
		repo:            repo,
		counter:         deps.Counter,
		outbox:          deps.Outbox,
		rdb:             deps.Redis,
		sf:              &singleflight.Group{},
		loc:             loc,
		now:             now,
		reportTTL:       ttl,
		allowRedecision: opts.AllowRedecision,
		logger:          l,
	}
}

func (s *service) Submit(
	ctx context.Context,
	kind Kind,
	caller identity.Identity,
	req SubmitRequest,
) (RequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("submit request requested",
		zap.String("request_id", rid),
		zap.String("kind", string(kind)),
		zap.String("user_id", caller.UserIDString()),
	)

	spec, err := specFor(kind)
	if err != nil {
		return RequestResponse{}, err
	}

	name := strings.TrimSpace(req.EmployeeName)
	if name == "" {
		name = strings.TrimSpace(caller.Name)
	}
	if name == "" {
		return RequestResponse{}, apperror.RequiredField("Employee Name")
	}
	reason := strings.TrimSpace(req.Reason)
	if spec.reasonRequired && reason == "" {
		return RequestResponse{}, apperror.RequiredField("Reason")
	}

	r := &Request{
		ID:             uuid.New(),
		Kind:           kind,
		EmployeeID:     caller.UserID,
		EmployeeName:   name,
		SubmitterEmail: strings.ToLower(strings.TrimSpace(caller.Email)),
		Reason:         reason,
		CEODecision:    DecisionPending,
		HRDecision:     DecisionPending,
		Status:         DecisionPending,
		Version:        1,
	}
	if err := spec.applyPeriod(req, r); err != nil {
		log.Warn("submit request invalid period", zap.String("kind", string(kind)), zap.Error(err))
		return RequestResponse{}, err
	}

	if s.counter != nil {
		next, err := s.counter.GetNextValue(ctx, strings.ToLower(string(kind))+"_reference")
		if err != nil {
			log.Error("submit request generate reference failed", zap.Error(err))
			return RequestResponse{}, apperror.Persistence(err)
		}
		r.ReferenceNo = fmt.Sprintf("%s-%06d", spec.refPrefix, next)
	}

	now := s.now()
	r.CreatedAt = now
	r.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("submit request begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return RequestResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, r); err != nil {
		log.Error("submit request persist failed", zap.Error(err))
		return RequestResponse{}, apperror.Persistence(err)
	}

	if s.outbox != nil {
		event := events.ApprovalSubmittedEvent{
			EventType:    events.EventApprovalSubmitted,
			RequestID:    r.ID.String(),
			ReferenceNo:  r.ReferenceNo,
			Kind:         string(kind),
			EmployeeID:   caller.UserIDString(),
			EmployeeName: r.EmployeeName,
			OccurredAt:   now.UTC(),
		}
		if err := s.queueEvent(ctx, tx, rid, r.ID, event.EventType, event); err != nil {
			log.Error("submit request outbox persist failed", zap.String("id", r.ID.String()), zap.Error(err))
			return RequestResponse{}, apperror.Persistence(err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("submit request commit failed", zap.String("request_id", rid), zap.Error(err))
		return RequestResponse{}, apperror.Persistence(err)
	}

	s.invalidateReport(ctx, kind, r.CreatedAt)

	log.Info("submit request success",
		zap.String("request_id", rid),
		zap.String("id", r.ID.String()),
		zap.String("reference_no", r.ReferenceNo),
		zap.String("kind", string(kind)),
	)

	return mapToResponse(*r), nil
}

func (s *service) ListMine(ctx context.Context, kind Kind, caller identity.Identity) ([]RequestResponse, error) {
	if !kind.Valid() {
		return nil, approvalerrors.ErrInvalidKind
	}

	f := Filter{Kind: kind, Sort: SortCreatedDesc}
	if caller.UserID != nil {
		f.EmployeeID = caller.UserID
	} else {
		email := strings.ToLower(strings.TrimSpace(caller.Email))
		if email == "" {
			return []RequestResponse{}, nil
		}
		f.GuestEmail = email
	}

	requests, err := s.repo.FindByFilter(ctx, f)
	if err != nil {
		s.logger.Error("list own requests failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(requests), nil
}

func (s *service) ListPending(ctx context.Context, kind Kind, stage Stage, q ScopeQuery) ([]RequestResponse, error) {
	if !kind.Valid() {
		return nil, approvalerrors.ErrInvalidKind
	}

	f := Filter{Kind: kind, Sort: SortCreatedDesc}
	field := ""
	switch stage {
	case StageCEO:
		f.CEODecisions = []Decision{DecisionPending}
		field = "created_at"
	case StageHR:
		f.CEODecisions = []Decision{DecisionApproved}
		f.HRDecisions = []Decision{DecisionPending}
		// HR's queue for the day is what the CEO cleared that day.
		field = "ceo_decision_at"
		f.Sort = SortCEODecidedDesc
	default:
		return nil, approvalerrors.ErrInvalidStage
	}
	f.Range = s.scopeRange(q, field)

	requests, err := s.repo.FindByFilter(ctx, f)
	if err != nil {
		s.logger.Error("list pending requests failed",
			zap.String("kind", string(kind)),
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(requests), nil
}

func (s *service) ListHistory(ctx context.Context, kind Kind, stage Stage, q ScopeQuery) ([]RequestResponse, error) {
	if !kind.Valid() {
		return nil, approvalerrors.ErrInvalidKind
	}

	decided := []Decision{DecisionApproved, DecisionRejected}
	f := Filter{Kind: kind}
	field := ""
	switch stage {
	case StageCEO:
		f.CEODecisions = decided
		f.Sort = SortCEODecidedDesc
		field = "ceo_decision_at"
	case StageHR:
		f.HRDecisions = decided
		f.Sort = SortHRDecidedDesc
		field = "hr_decision_at"
	default:
		return nil, approvalerrors.ErrInvalidStage
	}
	f.Range = s.scopeRange(q, field)

	requests, err := s.repo.FindByFilter(ctx, f)
	if err != nil {
		s.logger.Error("list decided requests failed",
			zap.String("kind", string(kind)),
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(requests), nil
}

func (s *service) scopeRange(q ScopeQuery, field string) *TimeRange {
	if q.Scope == ScopeAll {
		return nil
	}
	loc := q.Location
	if loc == nil {
		loc = s.loc
	}
	from, to := dayWindow(s.now(), loc)
	return &TimeRange{Field: field, From: from, To: to, ToInclusive: true}
}

func (s *service) Decide(
	ctx context.Context,
	kind Kind,
	stage Stage,
	caller identity.Identity,
	id, decision string,
) (RequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("decide request requested",
		zap.String("request_id", rid),
		zap.String("kind", string(kind)),
		zap.String("stage", string(stage)),
		zap.String("id", id),
		zap.String("decision", decision),
	)

	if !kind.Valid() {
		return RequestResponse{}, approvalerrors.ErrInvalidKind
	}
	d, err := ParseDecision(decision)
	if err != nil {
		return RequestResponse{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return RequestResponse{}, approvalerrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("decide request begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return RequestResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	r, err := qtx.FindByID(ctx, kind, id)
	if err != nil {
		log.Warn("decide request fetch failed", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, mapRepositoryError(err)
	}

	prevVersion := r.Version
	now := s.now()
	if err := applyDecision(r, stage, d, caller.UserID, now, s.allowRedecision); err != nil {
		log.Warn("decide request rejected",
			zap.String("id", id),
			zap.String("stage", string(stage)),
			zap.String("ceo_decision", string(r.CEODecision)),
			zap.String("hr_decision", string(r.HRDecision)),
			zap.Error(err),
		)
		return RequestResponse{}, err
	}
	r.Version = prevVersion + 1

	updated, err := qtx.UpdateDecision(ctx, r, prevVersion)
	if err != nil {
		log.Error("decide request persist failed", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, apperror.Persistence(err)
	}
	if !updated {
		log.Warn("decide request lost concurrent update", zap.String("id", id), zap.Int("version", prevVersion))
		return RequestResponse{}, approvalerrors.ErrConcurrentDecision
	}

	if s.outbox != nil {
		event := events.ApprovalDecidedEvent{
			EventType:    events.EventApprovalDecided,
			RequestID:    r.ID.String(),
			ReferenceNo:  r.ReferenceNo,
			Kind:         string(kind),
			Stage:        string(stage),
			Decision:     string(r.decisionOf(stage)),
			Status:       string(r.Status),
			DecidedBy:    caller.UserIDString(),
			EmployeeName: r.EmployeeName,
			CreatedAt:    r.CreatedAt.UTC(),
			OccurredAt:   now.UTC(),
		}
		if err := s.queueEvent(ctx, tx, rid, r.ID, event.EventType, event); err != nil {
			log.Error("decide request outbox persist failed", zap.String("id", id), zap.Error(err))
			return RequestResponse{}, apperror.Persistence(err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("decide request commit failed", zap.String("request_id", rid), zap.Error(err))
		return RequestResponse{}, apperror.Persistence(err)
	}

	s.invalidateReport(ctx, kind, r.CreatedAt)

	log.Info("decide request success",
		zap.String("request_id", rid),
		zap.String("id", id),
		zap.String("stage", string(stage)),
		zap.String("decision", string(d)),
		zap.String("status", string(r.Status)),
	)

	return mapToResponse(*r), nil
}

func (s *service) MonthlyReport(ctx context.Context, kind Kind, month string) (Report, error) {
	spec, err := specFor(kind)
	if err != nil {
		return Report{}, err
	}
	from, to, err := monthWindow(month, s.loc)
	if err != nil {
		return Report{}, err
	}
	month = from.Format("2006-01")

	cacheKey := GetReportCacheKey(kind, month)
	if rep, ok := s.cachedReport(ctx, cacheKey); ok {
		return rep, nil
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		// Shared by every waiter, so one caller going away must not fail the rest.
		sctx := context.WithoutCancel(ctx)
		requests, err := s.repo.FindByFilter(sctx, Filter{
			Kind:  kind,
			Range: &TimeRange{Field: "created_at", From: from, To: to},
			Sort:  SortCreatedAsc,
		})
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		rep := buildReport(kind, month, spec, requests)
		s.storeReport(sctx, cacheKey, rep)
		return rep, nil
	})
	if err != nil {
		s.logger.Error("monthly report failed",
			zap.String("kind", string(kind)),
			zap.String("month", month),
			zap.Error(err),
		)
		return Report{}, err
	}

	return v.(Report), nil
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, rid string, aggregateID uuid.UUID, eventType string, payload any) error {
	ev, err := kafka.NewOutboxEvent(rid, aggregateType, aggregateID.String(), eventType, events.ApprovalLifecycleTopic, payload)
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, ev)
}

func mapToResponse(r Request) RequestResponse {
	resp := RequestResponse{
		ID:           r.ID.String(),
		ReferenceNo:  r.ReferenceNo,
		Kind:         string(r.Kind),
		EmployeeName: r.EmployeeName,
		FromDate:     datePtr(r.FromDate),
		ToDate:       datePtr(r.ToDate),
		Date:         datePtr(r.Date),
		FromTime:     r.FromTime,
		ToTime:       r.ToTime,
		Reason:       r.Reason,
		CEODecision:  string(r.CEODecision),
		HRDecision:   string(r.HRDecision),
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.EmployeeID != nil {
		v := r.EmployeeID.String()
		resp.EmployeeID = &v
	}
	if r.CEODecisionAt != nil {
		v := r.CEODecisionAt.UTC().Format(time.RFC3339)
		resp.CEODecisionAt = &v
	}
	if r.HRDecisionAt != nil {
		v := r.HRDecisionAt.UTC().Format(time.RFC3339)
		resp.HRDecisionAt = &v
	}
	return resp
}

func mapToListResponse(requests []Request) []RequestResponse {
	res := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		res = append(res, mapToResponse(r))
	}
	return res
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(dateLayout)
	return &v
}
