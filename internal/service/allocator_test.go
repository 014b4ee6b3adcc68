package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rosterhub/workflow-engine/internal/service"
	st "github.com/rosterhub/workflow-engine/internal/store"
	"github.com/rosterhub/workflow-engine/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("allocator service", Ordered, func() {
	var (
		s         st.Store
		gormdb    *gorm.DB
		allocator *service.AllocatorService
	)

	BeforeAll(func() {
		s, gormdb = newTestStore()
		allocator = service.NewAllocatorService(s)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM employers;")
		gormdb.Exec("UPDATE counters SET value = 0;")
	})

	createEmployer := func(name string) *model.Employer {
		employer, err := s.Employer().Create(context.TODO(), model.Employer{CompanyName: name})
		Expect(err).To(BeNil())
		return employer
	}

	It("assigns sequential numbers to successive employers", func() {
		first := createEmployer("Acme")
		second := createEmployer("Globex")

		number, err := allocator.AllocateEmployerNumber(context.TODO(), first.ID)
		Expect(err).To(BeNil())
		Expect(number).To(Equal("RH0001"))

		number, err = allocator.AllocateEmployerNumber(context.TODO(), second.ID)
		Expect(err).To(BeNil())
		Expect(number).To(Equal("RH0002"))
	})

	It("returns the same number on repeated allocation", func() {
		employer := createEmployer("Acme")

		first, err := allocator.AllocateEmployerNumber(context.TODO(), employer.ID)
		Expect(err).To(BeNil())

		again, err := allocator.AllocateEmployerNumber(context.TODO(), employer.ID)
		Expect(err).To(BeNil())
		Expect(again).To(Equal(first))

		// the counter did not advance for the no-op call
		next := createEmployer("Globex")
		number, err := allocator.AllocateEmployerNumber(context.TODO(), next.ID)
		Expect(err).To(BeNil())
		Expect(number).To(Equal("RH0002"))
	})

	It("redraws past a number held outside the sequence", func() {
		squatter := createEmployer("Imported Corp")
		Expect(s.Employer().ClaimNumber(context.TODO(), squatter.ID, "RH0001")).To(Succeed())

		employer := createEmployer("Acme")
		number, err := allocator.AllocateEmployerNumber(context.TODO(), employer.ID)
		Expect(err).To(BeNil())
		Expect(number).To(Equal("RH0002"))
	})

	It("never hands the same number to concurrently created employers", func() {
		const employers = 10

		ids := make([]uint, 0, employers)
		for i := 0; i < employers; i++ {
			ids = append(ids, createEmployer(fmt.Sprintf("Corp %d", i)).ID)
		}

		var wg sync.WaitGroup
		numbers := make(chan string, employers)
		for _, id := range ids {
			wg.Add(1)
			go func(employerID uint) {
				defer wg.Done()
				defer GinkgoRecover()
				number, err := allocator.AllocateEmployerNumber(context.TODO(), employerID)
				Expect(err).To(BeNil())
				numbers <- number
			}(id)
		}
		wg.Wait()
		close(numbers)

		seen := map[string]bool{}
		for number := range numbers {
			Expect(seen[number]).To(BeFalse(), "number %s assigned twice", number)
			seen[number] = true
		}
		Expect(seen).To(HaveLen(employers))
		for i := 1; i <= employers; i++ {
			Expect(seen).To(HaveKey(service.FormatEmployerNumber(int64(i))))
		}
	})

	It("returns not found for an unknown employer", func() {
		_, err := allocator.AllocateEmployerNumber(context.TODO(), 424242)
		var notFound *service.ErrResourceNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
	})
})
