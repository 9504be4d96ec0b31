package approval

// SubmitRequest carries both period shapes; the kind decides which fields are required.
type SubmitRequest struct {
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`

	// Leave
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`

	// Permission
	Date     string `json:"date"`
	FromTime string `json:"from_time"`
	ToTime   string `json:"to_time"`
}

type DecideRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
}

type ListQuery struct {
	Scope    string `form:"scope"`
	Timezone string `form:"tz"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ReportQuery struct {
	Month string `form:"month" binding:"required"`
}

type RequestResponse struct {
	ID           string  `json:"id"`
	ReferenceNo  string  `json:"reference_no,omitempty"`
	Kind         string  `json:"kind"`
	EmployeeID   *string `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`

	FromDate *string `json:"from_date,omitempty"`
	ToDate   *string `json:"to_date,omitempty"`
	Date     *string `json:"date,omitempty"`
	FromTime string  `json:"from_time,omitempty"`
	ToTime   string  `json:"to_time,omitempty"`
	Reason   string  `json:"reason"`

	CEODecision   string  `json:"ceo_decision"`
	CEODecisionAt *string `json:"ceo_decision_at,omitempty"`
	HRDecision    string  `json:"hr_decision"`
	HRDecisionAt  *string `json:"hr_decision_at,omitempty"`
	Status        string  `json:"status"`

	CreatedAt string `json:"created_at"`
}
