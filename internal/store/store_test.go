package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rosterhub/workflow-engine/internal/config"
	st "github.com/rosterhub/workflow-engine/internal/store"
	"github.com/rosterhub/workflow-engine/internal/store/model"
	"gorm.io/gorm"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = Describe("Store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		cfg := config.NewDefault()
		cfg.Database.Type = "sqlite"
		cfg.Database.Name = ":memory:"

		db, err := st.InitDB(cfg)
		Expect(err).To(BeNil())
		gormDB = db

		store = st.NewStore(db)
		Expect(store).ToNot(BeNil())
		Expect(store.InitialMigration()).To(Succeed())
		Expect(store.Seed()).To(Succeed())
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE FROM workflow_log_entries;")
		gormDB.Exec("DELETE FROM job_postings;")
		gormDB.Exec("DELETE FROM employers;")
		gormDB.Exec("UPDATE counters SET value = 0;")
	})

	Context("transaction", func() {
		It("commits an employer insert", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			employer, err := store.Employer().Create(ctx, model.Employer{CompanyName: "Acme"})
			Expect(err).To(BeNil())
			Expect(employer.ID).ToNot(BeZero())

			_, cerr := st.Commit(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from employers;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rolls back an employer insert", func() {
			ctx, err := store.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = store.Employer().Create(ctx, model.Employer{CompanyName: "Acme"})
			Expect(err).To(BeNil())

			_, cerr := st.Rollback(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) from employers;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))
		})
	})

	Context("counter", func() {
		It("draws strictly increasing values", func() {
			first, err := store.Counter().Next(context.TODO(), st.CounterEmployerNumber)
			Expect(err).To(BeNil())
			Expect(first).To(Equal(int64(1)))

			second, err := store.Counter().Next(context.TODO(), st.CounterEmployerNumber)
			Expect(err).To(BeNil())
			Expect(second).To(Equal(int64(2)))
		})

		It("returns not found for an unknown counter", func() {
			_, err := store.Counter().Next(context.TODO(), "no_such_counter")
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("never hands the same value to concurrent callers", func() {
			const drawers = 20

			var wg sync.WaitGroup
			values := make(chan int64, drawers)
			for i := 0; i < drawers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					v, err := store.Counter().Next(context.TODO(), st.CounterEmployerNumber)
					Expect(err).To(BeNil())
					values <- v
				}()
			}
			wg.Wait()
			close(values)

			seen := map[int64]bool{}
			for v := range values {
				Expect(seen[v]).To(BeFalse())
				seen[v] = true
			}
			Expect(seen).To(HaveLen(drawers))
		})
	})

	Context("posting optimistic lock", func() {
		It("rejects a stale update", func() {
			created, err := store.Posting().Create(context.TODO(), model.JobPosting{
				ID:             uuid.New(),
				EmployerNumber: "RH0001",
				Title:          "Backend Engineer",
				Status:         "draft",
				WorkflowStage:  "intake",
			})
			Expect(err).To(BeNil())

			fresh := *created
			stale := *created

			fresh.Status = "pending_approval"
			_, err = store.Posting().UpdateWorkflow(context.TODO(), &fresh)
			Expect(err).To(BeNil())

			stale.Status = "cancelled"
			_, err = store.Posting().UpdateWorkflow(context.TODO(), &stale)
			Expect(err).To(MatchError(st.ErrConcurrentUpdate))

			current, err := store.Posting().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(current.Status).To(Equal("pending_approval"))
			Expect(current.Version).To(Equal(created.Version + 1))
		})

		It("leaves the caller's version untouched when the update errors", func() {
			created, err := store.Posting().Create(context.TODO(), model.JobPosting{
				ID:             uuid.New(),
				EmployerNumber: "RH0001",
				Title:          "Backend Engineer",
				Status:         "draft",
				WorkflowStage:  "intake",
			})
			Expect(err).To(BeNil())

			gormDB.Exec("ALTER TABLE job_postings RENAME TO job_postings_hidden;")
			defer gormDB.Exec("ALTER TABLE job_postings_hidden RENAME TO job_postings;")

			attempt := *created
			attempt.Status = "pending_approval"
			_, err = store.Posting().UpdateWorkflow(context.TODO(), &attempt)
			Expect(err).ToNot(BeNil())
			Expect(err).ToNot(MatchError(st.ErrConcurrentUpdate))
			Expect(attempt.Version).To(Equal(created.Version))
		})
	})

	Context("workflow log", func() {
		It("computes zero duration for the first entry", func() {
			postingID := uuid.New()
			entry, err := store.WorkflowLog().Record(context.TODO(), model.WorkflowLogEntry{
				PostingID:  postingID,
				Action:     "submit_for_review",
				FromStatus: "draft",
				ToStatus:   "pending_approval",
				Actor:      "admin-1",
			})
			Expect(err).To(BeNil())
			Expect(entry.DurationMinutes).To(BeZero())
		})

		It("computes the delta to the previous entry", func() {
			postingID := uuid.New()
			base := time.Now().UTC().Add(-30 * time.Minute)

			_, err := store.WorkflowLog().Record(context.TODO(), model.WorkflowLogEntry{
				PostingID:  postingID,
				Action:     "submit_for_review",
				FromStatus: "draft",
				ToStatus:   "pending_approval",
				Actor:      "admin-1",
				CreatedAt:  base,
			})
			Expect(err).To(BeNil())

			entry, err := store.WorkflowLog().Record(context.TODO(), model.WorkflowLogEntry{
				PostingID:  postingID,
				Action:     "approve",
				FromStatus: "pending_approval",
				ToStatus:   "approved",
				Actor:      "admin-1",
				CreatedAt:  base.Add(10 * time.Minute),
			})
			Expect(err).To(BeNil())
			Expect(entry.DurationMinutes).To(BeNumerically("~", 10.0, 0.01))
		})

		It("returns history in transition order", func() {
			postingID := uuid.New()
			base := time.Now().UTC().Add(-time.Hour)

			for i, action := range []string{"submit_for_review", "approve", "publish"} {
				_, err := store.WorkflowLog().Record(context.TODO(), model.WorkflowLogEntry{
					PostingID: postingID,
					Action:    action,
					Actor:     "admin-1",
					CreatedAt: base.Add(time.Duration(i) * time.Minute),
				})
				Expect(err).To(BeNil())
			}

			history, err := store.WorkflowLog().History(context.TODO(), postingID)
			Expect(err).To(BeNil())
			Expect(history).To(HaveLen(3))
			Expect(history[0].Action).To(Equal("submit_for_review"))
			Expect(history[1].Action).To(Equal("approve"))
			Expect(history[2].Action).To(Equal("publish"))
		})

		It("counts entries by target status since a cutoff", func() {
			postingID := uuid.New()
			now := time.Now().UTC()

			_, err := store.WorkflowLog().Record(context.TODO(), model.WorkflowLogEntry{
				PostingID: postingID,
				Action:    "approve",
				ToStatus:  "approved",
				Actor:     "admin-1",
				CreatedAt: now.Add(-48 * time.Hour),
			})
			Expect(err).To(BeNil())

			_, err = store.WorkflowLog().Record(context.TODO(), model.WorkflowLogEntry{
				PostingID: postingID,
				Action:    "approve",
				ToStatus:  "approved",
				Actor:     "admin-1",
				CreatedAt: now.Add(-time.Minute),
			})
			Expect(err).To(BeNil())

			count, err := store.WorkflowLog().CountByToStatusSince(context.TODO(), "approved", now.Add(-time.Hour))
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(1)))
		})
	})

	Context("employer number claim", func() {
		It("claims only once", func() {
			employer, err := store.Employer().Create(context.TODO(), model.Employer{CompanyName: "Acme"})
			Expect(err).To(BeNil())

			Expect(store.Employer().ClaimNumber(context.TODO(), employer.ID, "RH0001")).To(Succeed())

			err = store.Employer().ClaimNumber(context.TODO(), employer.ID, "RH0002")
			Expect(err).To(MatchError(st.ErrConcurrentUpdate))

			stored, err := store.Employer().Get(context.TODO(), employer.ID)
			Expect(err).To(BeNil())
			Expect(stored.EmployerNumber).ToNot(BeNil())
			Expect(*stored.EmployerNumber).To(Equal("RH0001"))
		})
	})
})
