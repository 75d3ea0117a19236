package entitlements

import (
	"time"

	"github.com/inceptionai/inception/app/models"
	"github.com/inceptionai/inception/app/repository"
)

const (
	// MaxFreeCounts is the lifetime number of generations granted to users
	// without an active subscription.
	MaxFreeCounts int64 = 5

	// GraceWindow is added on top of the nominal subscription expiry to
	// absorb billing-cycle clock skew at renewal boundaries.
	GraceWindow = 24 * time.Hour
)

// Denial reasons surfaced in a Verdict.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonQuotaExhausted  = "quota_exhausted"
)

// QuotaExhaustedMessage is the user-facing message for a quota denial.
const QuotaExhaustedMessage = "Free trial has expired."

// Verdict is the outcome of an authorization check. It is derived per
// request and never stored.
type Verdict struct {
	Allowed       bool   `json:"allowed"`
	Reason        string `json:"reason,omitempty"`
	Subscribed    bool   `json:"subscribed"`
	FreeRemaining bool   `json:"free_remaining"`
}

// Service decides whether a user may perform a metered generation and
// keeps the free-tier counter. All persistence lives in the injected
// repositories; the service itself is stateless.
type Service struct {
	limits repository.APILimitRepository
	subs   repository.SubscriptionRepository
}

// NewService creates an entitlement service from injected repositories.
func NewService(limits repository.APILimitRepository, subs repository.SubscriptionRepository) *Service {
	return &Service{limits: limits, subs: subs}
}

// GetUsageCount returns the user's consumed free-tier count, 0 when the
// user is unknown or has never consumed.
func (s *Service) GetUsageCount(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	return s.limits.GetCount(userID)
}

// HasFreeRemaining reports whether the user still has free-tier quota.
func (s *Service) HasFreeRemaining(userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	count, err := s.limits.GetCount(userID)
	if err != nil {
		return false, err
	}
	return count < MaxFreeCounts, nil
}

// IsSubscribed reports whether the user currently holds an active
// subscription, grace window included.
func (s *Service) IsSubscribed(userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	sub, err := s.subs.GetByUserID(userID)
	if err != nil {
		return false, err
	}
	return IsActive(sub, time.Now()), nil
}

// IsActive reports whether the subscription record entitles the user at
// the given instant. A missing record, missing price id or missing period
// end means not subscribed. The grace boundary is exclusive: a period end
// of exactly now minus the grace window is no longer active.
func IsActive(sub *models.UserSubscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	if sub.StripePriceID == "" || sub.StripeCurrentPeriodEnd == nil {
		return false
	}
	return sub.StripeCurrentPeriodEnd.Add(GraceWindow).After(now)
}

// Authorize decides whether the user may perform a metered generation.
//
// Callers that receive an allowed verdict must call RecordUsage after the
// gated action succeeds, and only when Subscribed is false. A failed
// downstream action must not consume the counter.
func (s *Service) Authorize(userID uint) (Verdict, error) {
	if userID == 0 {
		return Verdict{Allowed: false, Reason: ReasonUnauthenticated}, nil
	}

	freeRemaining, err := s.HasFreeRemaining(userID)
	if err != nil {
		return Verdict{}, err
	}
	subscribed, err := s.IsSubscribed(userID)
	if err != nil {
		return Verdict{}, err
	}

	if !freeRemaining && !subscribed {
		return Verdict{
			Allowed:       false,
			Reason:        ReasonQuotaExhausted,
			Subscribed:    false,
			FreeRemaining: false,
		}, nil
	}

	return Verdict{
		Allowed:       true,
		Subscribed:    subscribed,
		FreeRemaining: freeRemaining,
	}, nil
}

// RecordUsage consumes one unit of free-tier quota. Unknown users are a
// no-op. The row is created lazily at 1 on first consumption, afterwards
// each call adds 1; the count never decreases.
func (s *Service) RecordUsage(userID uint) error {
	if userID == 0 {
		return nil
	}
	return s.limits.Increment(userID)
}
