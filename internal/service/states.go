package service

// Posting statuses. The set is fixed; transitions between them are defined by
// transitionTable below.
const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusUnderReview     = "under_review"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusPublished       = "published"
	StatusActive          = "active"
	StatusPaused          = "paused"
	StatusClosed          = "closed"
	StatusExpired         = "expired"
	StatusArchived        = "archived"
	StatusFlagged         = "flagged"
	StatusCancelled       = "cancelled"
)

// Workflow stages group statuses for dashboard display.
const (
	StageIntake    = "intake"
	StageDecision  = "decision"
	StageLive      = "live"
	StageDone      = "done"
	StageAttention = "attention"
)

// Workflow actions.
const (
	ActionSubmitForReview = "submit_for_review"
	ActionStartReview     = "start_review"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionPublish         = "publish"
	ActionActivate        = "activate"
	ActionPause           = "pause"
	ActionResume          = "resume"
	ActionClose           = "close"
	ActionExpire          = "expire"
	ActionFlag            = "flag"
	ActionUnflag          = "unflag"
	ActionArchive         = "archive"
	ActionCancel          = "cancel"
)

// SystemActor is recorded on transitions performed by the automation
// scheduler.
const SystemActor = "system"

type transitionKey struct {
	from   string
	action string
}

// transitionTable is the whole state machine in one place. A missing key
// means the action is illegal from that status. Unflag is absent on purpose:
// its target is the posting's recorded previous status, handled in Transition.
var transitionTable = map[transitionKey]string{
	{StatusDraft, ActionSubmitForReview}:    StatusPendingApproval,
	{StatusRejected, ActionSubmitForReview}: StatusPendingApproval,

	{StatusPendingApproval, ActionStartReview}: StatusUnderReview,

	{StatusPendingApproval, ActionApprove}: StatusApproved,
	{StatusUnderReview, ActionApprove}:     StatusApproved,

	{StatusPendingApproval, ActionReject}: StatusRejected,
	{StatusUnderReview, ActionReject}:     StatusRejected,

	{StatusApproved, ActionPublish}: StatusPublished,

	{StatusPublished, ActionActivate}: StatusActive,

	{StatusActive, ActionPause}:  StatusPaused,
	{StatusPaused, ActionResume}: StatusActive,

	{StatusActive, ActionClose}: StatusClosed,
	{StatusPaused, ActionClose}: StatusClosed,

	{StatusActive, ActionExpire}:    StatusExpired,
	{StatusPublished, ActionExpire}: StatusExpired,

	{StatusDraft, ActionFlag}:           StatusFlagged,
	{StatusPendingApproval, ActionFlag}: StatusFlagged,
	{StatusUnderReview, ActionFlag}:     StatusFlagged,
	{StatusApproved, ActionFlag}:        StatusFlagged,
	{StatusRejected, ActionFlag}:        StatusFlagged,
	{StatusPublished, ActionFlag}:       StatusFlagged,
	{StatusActive, ActionFlag}:          StatusFlagged,
	{StatusPaused, ActionFlag}:          StatusFlagged,
	{StatusClosed, ActionFlag}:          StatusFlagged,
	{StatusExpired, ActionFlag}:         StatusFlagged,

	{StatusRejected, ActionArchive}:  StatusArchived,
	{StatusClosed, ActionArchive}:    StatusArchived,
	{StatusExpired, ActionArchive}:   StatusArchived,
	{StatusCancelled, ActionArchive}: StatusArchived,

	{StatusDraft, ActionCancel}:           StatusCancelled,
	{StatusPendingApproval, ActionCancel}: StatusCancelled,
	{StatusUnderReview, ActionCancel}:     StatusCancelled,
	{StatusApproved, ActionCancel}:        StatusCancelled,
	{StatusRejected, ActionCancel}:        StatusCancelled,
	{StatusPaused, ActionCancel}:          StatusCancelled,
}

// StageFor maps a status to its display stage.
func StageFor(status string) string {
	switch status {
	case StatusDraft, StatusPendingApproval, StatusUnderReview:
		return StageIntake
	case StatusApproved, StatusRejected:
		return StageDecision
	case StatusPublished, StatusActive, StatusPaused:
		return StageLive
	case StatusClosed, StatusExpired, StatusArchived, StatusCancelled:
		return StageDone
	case StatusFlagged:
		return StageAttention
	default:
		return ""
	}
}

// IsTerminal reports whether no automated transition originates from the
// status. Cancelled can still be archived manually; archived is final.
func IsTerminal(status string) bool {
	return status == StatusArchived || status == StatusCancelled
}
