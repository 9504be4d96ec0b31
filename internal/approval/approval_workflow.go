package approval

import (
	"time"

	approvalerrors "people-desk/internal/approval/errors"

	"github.com/google/uuid"
)

// ParseDecision accepts only terminal decisions; PENDING cannot be chosen by an approver.
func ParseDecision(v string) (Decision, error) {
	switch d := Decision(v); d {
	case DecisionApproved, DecisionRejected:
		return d, nil
	default:
		return "", approvalerrors.ErrInvalidDecision
	}
}

// applyDecision moves one gate out of PENDING and recomputes the derived status.
// The request is left untouched when an ordering rule is violated.
func applyDecision(r *Request, stage Stage, d Decision, actor *uuid.UUID, now time.Time, allowRedecision bool) error {
	switch stage {
	case StageCEO:
		if r.CEODecision != DecisionPending && !allowRedecision {
			return approvalerrors.ErrAlreadyDecided
		}
		r.CEODecision = d
		r.CEODecisionAt = &now
		r.CEODecidedBy = actor
		switch {
		case d == DecisionRejected:
			r.Status = DecisionRejected
		case r.HRDecision == DecisionApproved:
			r.Status = DecisionApproved
		default:
			r.Status = DecisionPending
		}

	case StageHR:
		if r.CEODecision != DecisionApproved {
			return approvalerrors.ErrCEODecisionRequired
		}
		if r.HRDecision != DecisionPending && !allowRedecision {
			return approvalerrors.ErrAlreadyDecided
		}
		r.HRDecision = d
		r.HRDecisionAt = &now
		r.HRDecidedBy = actor
		// CEO approval is guaranteed above, so HR's decision is final.
		r.Status = d

	default:
		return approvalerrors.ErrInvalidStage
	}

	r.UpdatedAt = now
	return nil
}
