package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rosterhub/workflow-engine/internal/store"
	"go.uber.org/zap"
)

const (
	employerNumberPrefix = "RH"

	// A collision means some employer holds a number ahead of the counter
	// (imported data, manual fixups). The counter catches up within a few
	// draws; anything beyond this means the sequence is genuinely unusable.
	maxAllocationAttempts = 100
)

// AllocatorService hands out employer numbers: RH + zero-padded sequence,
// assigned exactly once per employer.
type AllocatorService struct {
	store store.Store
}

func NewAllocatorService(store store.Store) *AllocatorService {
	return &AllocatorService{store: store}
}

// AllocateEmployerNumber returns the employer's number, assigning the next
// free one when none is set. Safe under concurrent invocation: the counter
// draw is atomic, and claiming the number is guarded so a racing caller falls
// back to reading the value that won.
func (s *AllocatorService) AllocateEmployerNumber(ctx context.Context, employerID uint) (string, error) {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	employer, err := s.store.Employer().Get(ctx, employerID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return "", NewErrEmployerNotFound(employerID)
		}
		return "", fmt.Errorf("failed to get employer: %w", err)
	}

	if employer.EmployerNumber != nil {
		return *employer.EmployerNumber, nil
	}

	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		seq, err := s.store.Counter().Next(ctx, store.CounterEmployerNumber)
		if err != nil {
			return "", fmt.Errorf("failed to draw employer number: %w", err)
		}

		number := FormatEmployerNumber(seq)

		// the counter draw is collision-free among concurrent allocators;
		// this check only guards against rows numbered outside the sequence
		if _, err := s.store.Employer().GetByNumber(ctx, number); err == nil {
			zap.S().Named("allocator_service").Warnw("employer number already taken, redrawing",
				"number", number)
			continue
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return "", fmt.Errorf("failed to check employer number: %w", err)
		}

		if err := s.store.Employer().ClaimNumber(ctx, employerID, number); err != nil {
			if errors.Is(err, store.ErrConcurrentUpdate) {
				// another caller assigned a number to this employer first
				if _, err := store.Rollback(ctx); err != nil {
					return "", err
				}
				winner, err := s.store.Employer().Get(context.WithoutCancel(ctx), employerID)
				if err != nil || winner.EmployerNumber == nil {
					return "", fmt.Errorf("failed to read concurrently assigned employer number: %w", err)
				}
				return *winner.EmployerNumber, nil
			}
			return "", fmt.Errorf("failed to claim employer number: %w", err)
		}

		if _, err := store.Commit(ctx); err != nil {
			return "", err
		}

		zap.S().Named("allocator_service").Infow("employer number assigned",
			"employer_id", employerID, "number", number)
		return number, nil
	}

	return "", NewErrIdentifierSpaceExhausted(maxAllocationAttempts)
}

// FormatEmployerNumber renders a sequence value as RH0001-style. Values past
// four digits keep growing naturally.
func FormatEmployerNumber(seq int64) string {
	return fmt.Sprintf("%s%04d", employerNumberPrefix, seq)
}
