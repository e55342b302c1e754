package model

import "time"

// SubscriptionTier は契約プランを表す。
type SubscriptionTier string

const (
	// TierFree は無料プラン。
	TierFree SubscriptionTier = "free"
	// TierPaid は有料プラン。
	TierPaid SubscriptionTier = "paid"
)

// SubscriptionStatus は契約の状態を表す。
type SubscriptionStatus string

const (
	StatusActive     SubscriptionStatus = "active"
	StatusTrialing   SubscriptionStatus = "trialing"
	StatusCanceled   SubscriptionStatus = "canceled"
	StatusPastDue    SubscriptionStatus = "past_due"
	StatusIncomplete SubscriptionStatus = "incomplete"
)

// Subscription はユーザーの課金契約を表す。
type Subscription struct {
	UserID           string
	Tier             SubscriptionTier
	Status           SubscriptionStatus
	CurrentPeriodEnd *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsPaidActive は有料プランが有効な状態かどうかを返す。
// canceled、past_due等は無料プラン扱いとする。
func (s *Subscription) IsPaidActive() bool {
	if s == nil || s.Tier != TierPaid {
		return false
	}
	return s.Status == StatusActive || s.Status == StatusTrialing
}
