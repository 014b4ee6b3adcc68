package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rosterhub/workflow-engine/internal/store"
	"github.com/rosterhub/workflow-engine/internal/store/model"
)

const trailingWindow = 30 * 24 * time.Hour

// StatsService computes read-only rollups for dashboards. It never opens a
// transaction; slightly stale reads are fine here.
type StatsService struct {
	store    store.Store
	location *time.Location
}

func NewStatsService(store store.Store, location *time.Location) *StatsService {
	if location == nil {
		location = time.UTC
	}
	return &StatsService{
		store:    store,
		location: location,
	}
}

func (s *StatsService) GetWorkflowStats(ctx context.Context) (*model.WorkflowStats, error) {
	now := time.Now().In(s.location)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	cutoff := now.Add(-trailingWindow)

	stats := &model.WorkflowStats{}

	var err error
	if stats.TotalPostings, err = s.store.Posting().Count(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to count postings: %w", err)
	}

	pendingFilter := store.NewPostingQueryFilter().ByStatus(StatusPendingApproval)
	if stats.PendingApproval, err = s.store.Posting().Count(ctx, pendingFilter); err != nil {
		return nil, fmt.Errorf("failed to count pending postings: %w", err)
	}

	if stats.ApprovedToday, err = s.store.WorkflowLog().CountByToStatusSince(ctx, StatusApproved, startOfDay); err != nil {
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}
	if stats.RejectedToday, err = s.store.WorkflowLog().CountByToStatusSince(ctx, StatusRejected, startOfDay); err != nil {
		return nil, fmt.Errorf("failed to count rejections: %w", err)
	}
	if stats.PublishedToday, err = s.store.WorkflowLog().CountByToStatusSince(ctx, StatusPublished, startOfDay); err != nil {
		return nil, fmt.Errorf("failed to count publishes: %w", err)
	}

	if stats.AvgApprovalHours, err = s.avgApprovalHours(ctx, cutoff); err != nil {
		return nil, err
	}

	if stats.TotalEmployers, err = s.store.Employer().Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count employers: %w", err)
	}
	if stats.ActiveEmployers, err = s.store.Posting().CountDistinctEmployersSince(ctx, cutoff); err != nil {
		return nil, fmt.Errorf("failed to count active employers: %w", err)
	}

	return stats, nil
}

// avgApprovalHours averages approved_at - submitted_at over the trailing
// window. Computed in Go to stay portable across database backends.
func (s *StatsService) avgApprovalHours(ctx context.Context, cutoff time.Time) (float64, error) {
	approved, err := s.store.Posting().List(ctx, store.NewPostingQueryFilter().ByApprovedSince(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to list approved postings: %w", err)
	}
	if len(approved) == 0 {
		return 0, nil
	}

	var total float64
	for _, posting := range approved {
		total += posting.ApprovedAt.Sub(*posting.SubmittedAt).Hours()
	}
	return total / float64(len(approved)), nil
}

func (s *StatsService) GetEmployerWorkflowSummary(ctx context.Context, employerNumber string) (*model.EmployerWorkflowSummary, error) {
	if _, err := s.store.Employer().GetByNumber(ctx, employerNumber); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrEmployerNumberNotFound(employerNumber)
		}
		return nil, fmt.Errorf("failed to resolve employer: %w", err)
	}

	postings, err := s.store.Posting().List(ctx, store.NewPostingQueryFilter().ByEmployerNumber(employerNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}

	summary := &model.EmployerWorkflowSummary{
		EmployerNumber: employerNumber,
		TotalPostings:  len(postings),
	}

	var views, applications int
	for i := range postings {
		posting := &postings[i]

		switch posting.Status {
		case StatusDraft:
			summary.Draft++
		case StatusPendingApproval:
			summary.PendingApproval++
		case StatusApproved:
			summary.Approved++
		case StatusActive:
			summary.Active++
		case StatusRejected:
			summary.Rejected++
		case StatusFlagged:
			summary.Flagged++
		}
		if posting.Featured {
			summary.Featured++
		}

		views += posting.Views
		applications += posting.Applications

		createdAt := posting.CreatedAt
		if summary.FirstPostingAt == nil || createdAt.Before(*summary.FirstPostingAt) {
			summary.FirstPostingAt = &createdAt
		}
		if summary.LastPostingAt == nil || createdAt.After(*summary.LastPostingAt) {
			summary.LastPostingAt = &createdAt
		}
	}

	if len(postings) > 0 {
		summary.AvgViews = float64(views) / float64(len(postings))
		summary.AvgApplications = float64(applications) / float64(len(postings))
	}

	return summary, nil
}
