package domain

import "time"

type Tenant struct {
	ID           string
	Name         string
	Slug         string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string

	// Raw plan fields as persisted. Status/quotas are derived on read,
	// never stored back (see entitlement.go).
	PlanKey            string
	SubscriptionActive bool
	SubscriptionEndsAt *time.Time
	TrialEndsAt        *time.Time

	Gating   GatingConfig
	Branches []Branch
}

// GatingConfig is the per-tenant review-gating block. Exactly one exists
// per tenant; writes are last-write-wins with no versioning.
type GatingConfig struct {
	Enabled     bool
	WelcomeCopy *string
	LogoURL     *string
	CoverURL    *string
	ReviewLink  *string // tenant-level external platform link
}

type Branch struct {
	ID         string // stable for the lifetime of the branch
	TenantID   string
	Name       string
	Address    string
	ReviewLink *string // overrides the tenant-level link when set
	Active     bool
}

// ActiveBranches filters to branches still offered on the public page.
func (t *Tenant) ActiveBranches() []Branch {
	var out []Branch
	for _, b := range t.Branches {
		if b.Active {
			out = append(out, b)
		}
	}
	return out
}

func (t *Tenant) BranchByID(id string) *Branch {
	for i := range t.Branches {
		if t.Branches[i].ID == id {
			return &t.Branches[i]
		}
	}
	return nil
}

// Settings is the tenant-independent singleton configured by admins.
type Settings struct {
	WidgetPhone     *string
	DemoEnabled     bool
	DemoSlotMinutes int
	NotifyURL       *string // admin contact routing for new feedback
	UpdatedAt       time.Time
}
