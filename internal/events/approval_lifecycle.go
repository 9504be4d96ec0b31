package events

import "time"

const ApprovalLifecycleTopic = "hr.approval.lifecycle.v1"

const (
	EventApprovalSubmitted = "approval.submitted"
	EventApprovalDecided   = "approval.decided"
)

type ApprovalSubmittedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id"`
	ReferenceNo  string    `json:"reference_no,omitempty"`
	Kind         string    `json:"kind"`
	EmployeeID   string    `json:"employee_id,omitempty"`
	EmployeeName string    `json:"employee_name"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type ApprovalDecidedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id"`
	ReferenceNo  string    `json:"reference_no,omitempty"`
	Kind         string    `json:"kind"`
	Stage        string    `json:"stage"`
	Decision     string    `json:"decision"`
	Status       string    `json:"status"`
	DecidedBy    string    `json:"decided_by,omitempty"`
	EmployeeName string    `json:"employee_name"`
	CreatedAt    time.Time `json:"created_at"`
	OccurredAt   time.Time `json:"occurred_at"`
}
