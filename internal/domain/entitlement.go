package domain

import (
	"strings"
	"time"
)

// Plan is the canonical subscription tier. Raw plan keys arrive in two
// historical naming schemes ("plan_pro" and "professional"); they are
// normalized here, once, instead of substring-matched at every call site.
type Plan int

const (
	PlanNone Plan = iota
	PlanBasic
	PlanPro
	PlanPremium
)

func (p Plan) String() string {
	switch p {
	case PlanBasic:
		return "basic"
	case PlanPro:
		return "pro"
	case PlanPremium:
		return "premium"
	default:
		return "none"
	}
}

// ParsePlan maps a raw plan key from either naming scheme onto the
// canonical tier. Matching is case-insensitive containment because keys
// like "plan_pro_monthly" exist in older records.
func ParsePlan(key string) Plan {
	k := strings.ToLower(strings.TrimSpace(key))
	switch {
	case k == "":
		return PlanNone
	case strings.Contains(k, "premium") || strings.Contains(k, "custom"):
		return PlanPremium
	case strings.Contains(k, "pro"): // plan_pro, professional
		return PlanPro
	case strings.Contains(k, "basic") || strings.Contains(k, "starter"):
		return PlanBasic
	default:
		return PlanNone
	}
}

type SubscriptionStatus string

const (
	SubActive  SubscriptionStatus = "Active"
	SubExpired SubscriptionStatus = "Expired"
	SubNone    SubscriptionStatus = "None"
)

// DeriveStatus is a pure function of the raw subscription fields and the
// clock. Active requires the flag set AND an end date strictly after now;
// a flag that was set but ran out is Expired; everything else is None.
func DeriveStatus(active bool, endsAt *time.Time, now time.Time) SubscriptionStatus {
	if active && endsAt != nil && endsAt.After(now) {
		return SubActive
	}
	if active {
		return SubExpired
	}
	return SubNone
}

// UnlimitedCap is the sentinel for tiers with no effective limit.
const UnlimitedCap = 1 << 30

// Entitlements is the derived view of a tenant's subscription: tri-state
// status, resource caps, and feature flags. Recomputed on every read,
// never persisted.
type Entitlements struct {
	Plan             Plan
	Status           SubscriptionStatus
	Trialing         bool
	BranchCap        int
	ReviewHistoryCap int
	Analytics        bool
}

// DeriveEntitlements computes the full entitlement view for a tenant.
// A trial that has not ended grants access equivalent to an active paid
// plan, independent of the paid-plan flag.
func DeriveEntitlements(t *Tenant, now time.Time) Entitlements {
	e := Entitlements{
		Plan:   ParsePlan(t.PlanKey),
		Status: DeriveStatus(t.SubscriptionActive, t.SubscriptionEndsAt, now),
	}
	if t.TrialEndsAt != nil && now.Before(*t.TrialEndsAt) {
		e.Trialing = true
	}

	switch {
	case e.Status == SubActive:
		switch e.Plan {
		case PlanBasic:
			e.BranchCap, e.ReviewHistoryCap = 3, 100
		case PlanPro:
			e.BranchCap, e.ReviewHistoryCap = 5, 500
		case PlanPremium:
			e.BranchCap, e.ReviewHistoryCap = UnlimitedCap, UnlimitedCap
		}
	case e.Trialing:
		e.BranchCap, e.ReviewHistoryCap = 1, 100
	}

	e.Analytics = e.Plan >= PlanPro && (e.Status == SubActive || e.Trialing)
	return e
}

// CanAccess reports whether the tenant may use the product at all:
// either an active subscription or a running trial.
func (e Entitlements) CanAccess() bool {
	return e.Status == SubActive || e.Trialing
}
