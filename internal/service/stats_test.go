package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rosterhub/workflow-engine/internal/service"
	st "github.com/rosterhub/workflow-engine/internal/store"
	"github.com/rosterhub/workflow-engine/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("stats service", Ordered, func() {
	var (
		s      st.Store
		gormdb *gorm.DB
		stats  *service.StatsService
	)

	BeforeAll(func() {
		s, gormdb = newTestStore()
		stats = service.NewStatsService(s, time.UTC)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM workflow_log_entries;")
		gormdb.Exec("DELETE FROM job_postings;")
		gormdb.Exec("DELETE FROM employers;")
	})

	createPosting := func(employerNumber, status string, mutate func(*model.JobPosting)) *model.JobPosting {
		posting := model.JobPosting{
			ID:             uuid.New(),
			EmployerNumber: employerNumber,
			Title:          "Posting",
			Status:         status,
			WorkflowStage:  service.StageFor(status),
		}
		if mutate != nil {
			mutate(&posting)
		}
		created, err := s.Posting().Create(context.TODO(), posting)
		Expect(err).To(BeNil())
		return created
	}

	Context("workflow stats", func() {
		It("counts approvals on the current calendar day only", func() {
			now := time.Now().UTC()
			startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

			postingID := uuid.New()
			for _, createdAt := range []time.Time{
				startOfDay.Add(-time.Minute),    // yesterday
				startOfDay.Add(time.Minute),     // today
				startOfDay.Add(2 * time.Minute), // today
			} {
				_, err := s.WorkflowLog().Record(context.TODO(), model.WorkflowLogEntry{
					PostingID: postingID,
					Action:    service.ActionApprove,
					ToStatus:  service.StatusApproved,
					Actor:     "admin-1",
					CreatedAt: createdAt,
				})
				Expect(err).To(BeNil())
			}

			result, err := stats.GetWorkflowStats(context.TODO())
			Expect(err).To(BeNil())
			Expect(result.ApprovedToday).To(Equal(int64(2)))
		})

		It("averages approval duration over the trailing window", func() {
			createEmployerWithNumber(s, "RH0001")
			now := time.Now().UTC()

			createPosting("RH0001", service.StatusApproved, func(p *model.JobPosting) {
				submitted := now.Add(-6 * time.Hour)
				approved := now.Add(-2 * time.Hour)
				p.SubmittedAt = &submitted
				p.ApprovedAt = &approved
			})
			createPosting("RH0001", service.StatusApproved, func(p *model.JobPosting) {
				submitted := now.Add(-3 * time.Hour)
				approved := now.Add(-time.Hour)
				p.SubmittedAt = &submitted
				p.ApprovedAt = &approved
			})
			// outside the 30-day window, must not skew the average
			createPosting("RH0001", service.StatusApproved, func(p *model.JobPosting) {
				submitted := now.Add(-45 * 24 * time.Hour)
				approved := now.Add(-44 * 24 * time.Hour)
				p.SubmittedAt = &submitted
				p.ApprovedAt = &approved
			})

			result, err := stats.GetWorkflowStats(context.TODO())
			Expect(err).To(BeNil())
			Expect(result.AvgApprovalHours).To(BeNumerically("~", 3.0, 0.01))
		})

		It("counts totals, pending and active employers", func() {
			createEmployerWithNumber(s, "RH0001")
			createEmployerWithNumber(s, "RH0002")

			createPosting("RH0001", service.StatusPendingApproval, nil)
			createPosting("RH0001", service.StatusActive, nil)
			createPosting("RH0002", service.StatusDraft, func(p *model.JobPosting) {
				p.CreatedAt = time.Now().UTC().Add(-40 * 24 * time.Hour)
			})

			result, err := stats.GetWorkflowStats(context.TODO())
			Expect(err).To(BeNil())
			Expect(result.TotalPostings).To(Equal(int64(3)))
			Expect(result.PendingApproval).To(Equal(int64(1)))
			Expect(result.TotalEmployers).To(Equal(int64(2)))
			// RH0002's only posting predates the trailing window
			Expect(result.ActiveEmployers).To(Equal(int64(1)))
		})
	})

	Context("employer summary", func() {
		It("rolls up a single employer's postings", func() {
			createEmployerWithNumber(s, "RH0001")

			createPosting("RH0001", service.StatusDraft, func(p *model.JobPosting) {
				p.Views = 10
				p.Applications = 2
			})
			createPosting("RH0001", service.StatusActive, func(p *model.JobPosting) {
				p.Views = 30
				p.Applications = 4
				p.Featured = true
			})
			createPosting("RH0001", service.StatusRejected, nil)

			summary, err := stats.GetEmployerWorkflowSummary(context.TODO(), "RH0001")
			Expect(err).To(BeNil())
			Expect(summary.TotalPostings).To(Equal(3))
			Expect(summary.Draft).To(Equal(1))
			Expect(summary.Active).To(Equal(1))
			Expect(summary.Rejected).To(Equal(1))
			Expect(summary.Featured).To(Equal(1))
			Expect(summary.AvgViews).To(BeNumerically("~", 40.0/3.0, 0.01))
			Expect(summary.AvgApplications).To(BeNumerically("~", 2.0, 0.01))
			Expect(summary.FirstPostingAt).ToNot(BeNil())
			Expect(summary.LastPostingAt).ToNot(BeNil())
		})

		It("ignores other employers' postings", func() {
			createEmployerWithNumber(s, "RH0001")
			createEmployerWithNumber(s, "RH0002")

			createPosting("RH0001", service.StatusActive, nil)
			createPosting("RH0002", service.StatusActive, nil)

			summary, err := stats.GetEmployerWorkflowSummary(context.TODO(), "RH0001")
			Expect(err).To(BeNil())
			Expect(summary.TotalPostings).To(Equal(1))
		})

		It("returns not found for an unknown employer number", func() {
			_, err := stats.GetEmployerWorkflowSummary(context.TODO(), "RH4242")
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})
})
