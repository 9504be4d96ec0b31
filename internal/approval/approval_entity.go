package approval

import (
	"time"

	"people-desk/internal/rbac"

	"github.com/google/uuid"
)

type Kind string

const (
	KindLeave      Kind = "LEAVE"
	KindPermission Kind = "PERMISSION"
)

func (k Kind) Valid() bool {
	_, ok := kindSpecs[k]
	return ok
}

type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// Stage is one of the two sequential approval gates.
type Stage string

const (
	StageCEO Stage = "CEO"
	StageHR  Stage = "HR"
)

// StageForRole maps an approver role to the gate it owns.
func StageForRole(role rbac.Role) (Stage, bool) {
	switch role {
	case rbac.RoleCEO:
		return StageCEO, true
	case rbac.RoleHR:
		return StageHR, true
	default:
		return "", false
	}
}

// Request is a Leave or Permission request. Only the fields of its kind's period are set.
type Request struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReferenceNo    string     `gorm:"type:varchar(20);uniqueIndex"`
	Kind           Kind       `gorm:"type:varchar(20);not null;index:idx_approval_requests_kind_created"`
	EmployeeID     *uuid.UUID `gorm:"type:uuid;index:idx_approval_requests_employee"`
	EmployeeName   string     `gorm:"type:varchar(255);not null"`
	SubmitterEmail string     `gorm:"type:varchar(255);index"`

	FromDate *time.Time `gorm:"type:date"`
	ToDate   *time.Time `gorm:"type:date"`
	Date     *time.Time `gorm:"type:date"`
	FromTime string     `gorm:"type:varchar(5)"`
	ToTime   string     `gorm:"type:varchar(5)"`
	Reason   string     `gorm:"type:text"`

	CEODecision   Decision   `gorm:"column:ceo_decision;type:varchar(20);not null;default:'PENDING';index"`
	CEODecisionAt *time.Time `gorm:"column:ceo_decision_at;index"`
	CEODecidedBy  *uuid.UUID `gorm:"column:ceo_decided_by;type:uuid"`
	HRDecision    Decision   `gorm:"column:hr_decision;type:varchar(20);not null;default:'PENDING';index"`
	HRDecisionAt  *time.Time `gorm:"column:hr_decision_at;index"`
	HRDecidedBy   *uuid.UUID `gorm:"column:hr_decided_by;type:uuid"`
	Status        Decision   `gorm:"type:varchar(20);not null;default:'PENDING'"`

	// Version is bumped on every decision; updates are conditional on it.
	Version int `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"index:idx_approval_requests_kind_created"`
	UpdatedAt time.Time
}

func (Request) TableName() string {
	return "approval_requests"
}

func (r *Request) decisionOf(stage Stage) Decision {
	if stage == StageHR {
		return r.HRDecision
	}
	return r.CEODecision
}
