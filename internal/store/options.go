package store

import (
	"time"

	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type PostingQueryFilter BaseQuerier

func NewPostingQueryFilter() *PostingQueryFilter {
	return &PostingQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *PostingQueryFilter) ByStatus(statuses ...string) *PostingQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	})
	return qf
}

func (qf *PostingQueryFilter) ByEmployerNumber(number string) *PostingQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("employer_number = ?", number)
	})
	return qf
}

// ByAutoPublishDue selects approved postings whose scheduled publish time has
// arrived and which have not been published for that schedule yet. Re-running
// the sweep finds nothing: the publish transition moves status off approved.
func (qf *PostingQueryFilter) ByAutoPublishDue(now time.Time) *PostingQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("auto_publish IS TRUE").
			Where("status = ?", "approved").
			Where("scheduled_publish_at IS NOT NULL AND scheduled_publish_at <= ?", now).
			Where("published_at IS NULL OR published_at < scheduled_publish_at")
	})
	return qf
}

// ByExpiredBefore selects live postings whose expiry time has passed.
func (qf *PostingQueryFilter) ByExpiredBefore(now time.Time) *PostingQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("expires_at IS NOT NULL AND expires_at <= ?", now).
			Where("status IN ?", []string{"active", "published"})
	})
	return qf
}

// ByApprovedSince selects postings approved after the cutoff that also carry a
// submission timestamp, the pair needed for approval-duration averages.
func (qf *PostingQueryFilter) ByApprovedSince(cutoff time.Time) *PostingQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("approved_at IS NOT NULL AND approved_at >= ?", cutoff).
			Where("submitted_at IS NOT NULL")
	})
	return qf
}

func (qf *PostingQueryFilter) ByCreatedSince(cutoff time.Time) *PostingQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("created_at >= ?", cutoff)
	})
	return qf
}
