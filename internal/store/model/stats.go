package model

import "time"

// WorkflowStats is the dashboard rollup computed by the stats service. All
// fields are derived reads; nothing here is authoritative state.
type WorkflowStats struct {
	TotalPostings    int64   `json:"total_postings"`
	PendingApproval  int64   `json:"pending_approval"`
	ApprovedToday    int64   `json:"approved_today"`
	RejectedToday    int64   `json:"rejected_today"`
	PublishedToday   int64   `json:"published_today"`
	AvgApprovalHours float64 `json:"avg_approval_hours"`
	TotalEmployers   int64   `json:"total_employers"`
	ActiveEmployers  int64   `json:"active_employers"`
}

// EmployerWorkflowSummary is the per-employer rollup, recomputed on read.
type EmployerWorkflowSummary struct {
	EmployerNumber  string     `json:"employer_number"`
	TotalPostings   int        `json:"total_postings"`
	Draft           int        `json:"draft"`
	PendingApproval int        `json:"pending_approval"`
	Approved        int        `json:"approved"`
	Active          int        `json:"active"`
	Rejected        int        `json:"rejected"`
	Featured        int        `json:"featured"`
	Flagged         int        `json:"flagged"`
	AvgViews        float64    `json:"avg_views"`
	AvgApplications float64    `json:"avg_applications"`
	FirstPostingAt  *time.Time `json:"first_posting_at,omitempty"`
	LastPostingAt   *time.Time `json:"last_posting_at,omitempty"`
}
