package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportmeet/internal/domain"
)

type ageChecker struct {
	userRepo domain.UserRepository
}

// NewAgeChecker returns the EligibilityChecker that validates a user's age
// against an event's age window from the user's stored birth date.
func NewAgeChecker(userRepo domain.UserRepository) domain.EligibilityChecker {
	return &ageChecker{userRepo: userRepo}
}

func (c *ageChecker) CheckAge(ctx context.Context, event *domain.Event, userID string) error {
	if event.MinAge <= 0 && event.MaxAge <= 0 {
		return nil
	}
	user, err := c.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}
	// Profiles without a birth date predate the age requirement; let the
	// organizer decide at approval time.
	if user.BirthDate.IsZero() {
		return nil
	}
	if !domain.WithinAgeBounds(event, domain.AgeAt(user.BirthDate, time.Now())) {
		return domain.ErrNotEligible
	}
	return nil
}
