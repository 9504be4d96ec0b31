package approval

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Sort string

const (
	SortCreatedDesc    Sort = "created_at DESC"
	SortCreatedAsc     Sort = "created_at ASC"
	SortCEODecidedDesc Sort = "ceo_decision_at DESC"
	SortHRDecidedDesc  Sort = "hr_decision_at DESC"
)

// TimeRange bounds Field from From (inclusive) to To, inclusive only when ToInclusive is set.
type TimeRange struct {
	Field       string
	From        time.Time
	To          time.Time
	ToInclusive bool
}

type Filter struct {
	Kind Kind

	EmployeeID *uuid.UUID
	// GuestEmail selects requests of external employees, who have no EmployeeID.
	GuestEmail string

	CEODecisions []Decision
	HRDecisions  []Decision

	Range *TimeRange
	Sort  Sort
}

//go:generate mockgen -source=approval_repo.go -destination=mock/approval_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, kind Kind, id string) (*Request, error)
	// UpdateDecision persists both gates only if the stored version still equals expectedVersion.
	UpdateDecision(ctx context.Context, r *Request, expectedVersion int) (bool, error)
	FindByFilter(ctx context.Context, f Filter) ([]Request, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn runs statements on the bound transaction when there is one.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, req *Request) error {
	return r.conn(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, kind Kind, id string) (*Request, error) {
	var req Request
	err := r.conn(ctx).
		Where("kind = ?", kind).
		First(&req, "id = ?", id).Error
	return &req, err
}

func (r *repository) UpdateDecision(ctx context.Context, req *Request, expectedVersion int) (bool, error) {
	res := r.conn(ctx).
		Model(&Request{}).
		Where("id = ? AND version = ?", req.ID, expectedVersion).
		Updates(map[string]any{
			"ceo_decision":    req.CEODecision,
			"ceo_decision_at": req.CEODecisionAt,
			"ceo_decided_by":  req.CEODecidedBy,
			"hr_decision":     req.HRDecision,
			"hr_decision_at":  req.HRDecisionAt,
			"hr_decided_by":   req.HRDecidedBy,
			"status":          req.Status,
			"version":         req.Version,
			"updated_at":      req.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByFilter(ctx context.Context, f Filter) ([]Request, error) {
	db := r.conn(ctx).Model(&Request{})

	if f.Kind != "" {
		db = db.Where("kind = ?", f.Kind)
	}
	if f.EmployeeID != nil {
		db = db.Where("employee_id = ?", *f.EmployeeID)
	} else if f.GuestEmail != "" {
		db = db.Where("employee_id IS NULL").Where("submitter_email = ?", f.GuestEmail)
	}
	if len(f.CEODecisions) > 0 {
		db = db.Where("ceo_decision IN ?", f.CEODecisions)
	}
	if len(f.HRDecisions) > 0 {
		db = db.Where("hr_decision IN ?", f.HRDecisions)
	}
	if f.Range != nil {
		db = db.Where(f.Range.Field+" >= ?", f.Range.From)
		if f.Range.ToInclusive {
			db = db.Where(f.Range.Field+" <= ?", f.Range.To)
		} else {
			db = db.Where(f.Range.Field+" < ?", f.Range.To)
		}
	}

	sort := f.Sort
	if sort == "" {
		sort = SortCreatedAsc
	}

	var requests []Request
	err := db.Order(string(sort)).Find(&requests).Error
	return requests, err
}
