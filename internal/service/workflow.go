package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rosterhub/workflow-engine/internal/store"
	"github.com/rosterhub/workflow-engine/internal/store/model"
	"github.com/rosterhub/workflow-engine/pkg/metrics"
	"go.uber.org/zap"
)

// WorkflowService owns the posting lifecycle: it validates actions against
// the transition table and applies status, stage, timestamps and the audit
// log entry as one transaction.
type WorkflowService struct {
	store store.Store
}

func NewWorkflowService(store store.Store) *WorkflowService {
	return &WorkflowService{store: store}
}

// PostingCreateForm carries the caller-supplied fields for a new draft
// posting.
type PostingCreateForm struct {
	EmployerNumber     string
	Title              string
	AutoPublish        bool
	ScheduledPublishAt *time.Time
	ExpiresAt          *time.Time
	RequiresReview     bool
	AdminPriority      int
	WorkflowNotes      string
}

// CreatePosting creates a posting in draft. The employer must already hold a
// number; the denormalized copy on the posting is written in the same
// transaction that checks it, so the two can never drift.
func (s *WorkflowService) CreatePosting(ctx context.Context, form PostingCreateForm) (*model.JobPosting, error) {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	if _, err := s.store.Employer().GetByNumber(ctx, form.EmployerNumber); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrEmployerNumberNotFound(form.EmployerNumber)
		}
		return nil, fmt.Errorf("failed to resolve employer: %w", err)
	}

	posting := model.JobPosting{
		ID:                 uuid.New(),
		EmployerNumber:     form.EmployerNumber,
		Title:              form.Title,
		Status:             StatusDraft,
		WorkflowStage:      StageFor(StatusDraft),
		AutoPublish:        form.AutoPublish,
		ScheduledPublishAt: form.ScheduledPublishAt,
		ExpiresAt:          form.ExpiresAt,
		RequiresReview:     form.RequiresReview,
		AdminPriority:      form.AdminPriority,
		WorkflowNotes:      form.WorkflowNotes,
	}

	created, err := s.store.Posting().Create(ctx, posting)
	if err != nil {
		return nil, fmt.Errorf("failed to create posting: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	zap.S().Named("workflow_service").Infow("posting created",
		"posting_id", created.ID, "employer_number", created.EmployerNumber)
	return created, nil
}

// Transition applies one workflow action to a posting. The status update and
// the audit entry are committed together or not at all. Concurrent
// transitions on the same posting are serialized by the posting's version:
// the loser observes the new status and gets an invalid-transition error.
func (s *WorkflowService) Transition(ctx context.Context, postingID uuid.UUID, action, actor, notes string, automated bool) (*model.JobPosting, error) {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	posting, err := s.store.Posting().Get(ctx, postingID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrPostingNotFound(postingID)
		}
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}

	fromStatus := posting.Status
	stageBefore := posting.WorkflowStage

	toStatus, err := s.resolveTarget(posting, action)
	if err != nil {
		return nil, err
	}

	if action == ActionReject && notes == "" {
		return nil, NewErrRejectionReasonRequired(postingID)
	}

	now := time.Now().UTC()
	s.applyTransition(posting, action, fromStatus, toStatus, notes, now)

	updated, err := s.store.Posting().UpdateWorkflow(ctx, posting)
	if err != nil {
		if errors.Is(err, store.ErrConcurrentUpdate) {
			return nil, s.concurrentUpdateError(ctx, postingID, action)
		}
		return nil, fmt.Errorf("failed to update posting: %w", err)
	}

	entry := model.WorkflowLogEntry{
		PostingID:      posting.ID,
		EmployerNumber: posting.EmployerNumber,
		Action:         action,
		FromStatus:     fromStatus,
		ToStatus:       toStatus,
		StageBefore:    stageBefore,
		StageAfter:     updated.WorkflowStage,
		Actor:          actor,
		Notes:          notes,
		Automated:      automated,
		CreatedAt:      now,
	}
	if _, err := s.store.WorkflowLog().Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record workflow log entry: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncreaseTransitionsTotalMetric(action, automated)
	zap.S().Named("workflow_service").Infow("posting transitioned",
		"posting_id", postingID, "action", action, "from", fromStatus, "to", toStatus,
		"actor", actor, "automated", automated)
	return updated, nil
}

// History returns the posting's ordered audit trail.
func (s *WorkflowService) History(ctx context.Context, postingID uuid.UUID) ([]model.WorkflowLogEntry, error) {
	if _, err := s.store.Posting().Get(ctx, postingID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrPostingNotFound(postingID)
		}
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return s.store.WorkflowLog().History(ctx, postingID)
}

func (s *WorkflowService) GetPosting(ctx context.Context, postingID uuid.UUID) (*model.JobPosting, error) {
	posting, err := s.store.Posting().Get(ctx, postingID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrPostingNotFound(postingID)
		}
		return nil, fmt.Errorf("failed to get posting: %w", err)
	}
	return posting, nil
}

func (s *WorkflowService) resolveTarget(posting *model.JobPosting, action string) (string, error) {
	if action == ActionUnflag {
		if posting.Status != StatusFlagged || posting.PreviousStatus == "" {
			return "", NewErrInvalidTransition(posting.ID, action, posting.Status)
		}
		return posting.PreviousStatus, nil
	}

	toStatus, ok := transitionTable[transitionKey{from: posting.Status, action: action}]
	if !ok {
		return "", NewErrInvalidTransition(posting.ID, action, posting.Status)
	}
	return toStatus, nil
}

func (s *WorkflowService) applyTransition(posting *model.JobPosting, action, fromStatus, toStatus, notes string, now time.Time) {
	posting.Status = toStatus
	posting.WorkflowStage = StageFor(toStatus)

	switch action {
	case ActionSubmitForReview:
		posting.SubmittedAt = &now
	case ActionApprove:
		posting.ApprovedAt = &now
		posting.ReviewCompletedAt = &now
	case ActionReject:
		posting.ReviewCompletedAt = &now
		posting.RejectionReason = notes
	case ActionPublish:
		posting.PublishedAt = &now
	case ActionFlag:
		posting.PreviousStatus = fromStatus
	case ActionUnflag:
		posting.PreviousStatus = ""
	}
}

// concurrentUpdateError re-reads the posting outside the failed transaction
// so the caller sees the status that won the race.
func (s *WorkflowService) concurrentUpdateError(ctx context.Context, postingID uuid.UUID, action string) error {
	_, _ = store.Rollback(ctx)

	current, err := s.store.Posting().Get(context.WithoutCancel(ctx), postingID)
	if err != nil {
		return NewErrInvalidTransition(postingID, action, "unknown")
	}
	return NewErrInvalidTransition(postingID, action, current.Status)
}
