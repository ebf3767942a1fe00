package domain

import "strings"

// Route is where a completed submission goes.
type Route string

const (
	// RouteExternal redirects the visitor to the external review platform.
	RouteExternal Route = "external"
	// RouteInternal collects structured feedback into the tenant's store.
	RouteInternal Route = "internal"
)

// GateThreshold splits happy from unhappy visitors: ratings at or above
// it go to the external platform when gating is enabled.
const GateThreshold = 4

// Submission is the visitor's transient input to the gating decision.
type Submission struct {
	Rating   int
	BranchID string
	Name     string
	Phone    string
	Email    string
	Comment  string
	// Override is the three-star escape hatch: the visitor chose to
	// proceed to the external platform despite the gated form.
	Override bool
}

// Decision is the outcome of applying the gating rule to a submission.
type Decision struct {
	Route  Route
	Source ReviewSource
	// ExternalURL is set on the external route; resolved branch link
	// first, then tenant link, then the configured fallback.
	ExternalURL string
	// NeedsBranch means branch selection is mandatory before either
	// path may proceed.
	NeedsBranch bool
	// NeedsForm means the structured feedback form must be completed
	// (and validated) before anything is persisted.
	NeedsForm bool
	// AllowOverride is set only for a rating of exactly 3 with gating
	// enabled, offering the opt-out to the external platform.
	AllowOverride bool
}

// Decide applies the review-gating rule:
//
//  1. gating disabled: always external, any rating; tracked as external.
//  2. gating enabled, rating >= GateThreshold: external.
//  3. gating enabled, rating <= 3: internal feedback form; rating 3 may
//     opt out to the external platform (tracked separately).
//
// Branch selection is forced first whenever the tenant has any active
// branches and none was chosen.
func Decide(t *Tenant, sub Submission, fallbackLink string) Decision {
	branch := t.BranchByID(sub.BranchID)
	if len(t.ActiveBranches()) > 0 && branch == nil {
		return Decision{NeedsBranch: true}
	}

	url := resolveLink(t, branch, fallbackLink)

	if !t.Gating.Enabled {
		return Decision{Route: RouteExternal, Source: SourceExternal, ExternalURL: url}
	}
	if sub.Rating >= GateThreshold {
		return Decision{Route: RouteExternal, Source: SourceExternal, ExternalURL: url}
	}
	if sub.Rating == 3 && sub.Override {
		return Decision{Route: RouteExternal, Source: SourceExternalOverride, ExternalURL: url}
	}
	return Decision{
		Route:         RouteInternal,
		Source:        SourceInternal,
		NeedsForm:     true,
		AllowOverride: sub.Rating == 3,
	}
}

// resolveLink picks the branch override when present, else the tenant
// link, else the configured generic fallback.
func resolveLink(t *Tenant, b *Branch, fallback string) string {
	if b != nil && b.ReviewLink != nil && strings.TrimSpace(*b.ReviewLink) != "" {
		return *b.ReviewLink
	}
	if t.Gating.ReviewLink != nil && strings.TrimSpace(*t.Gating.ReviewLink) != "" {
		return *t.Gating.ReviewLink
	}
	return fallback
}

// BranchLabel is the value stored in the review's branchname field:
// the chosen branch's name and location joined, empty when the tenant
// has no branches.
func BranchLabel(b *Branch) string {
	if b == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	for _, p := range []string{b.Name, b.Address} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// ValidateForm checks the internal-path required fields after trimming.
// Every offending field gets its own message so the caller can mark them
// individually without discarding entered values.
func ValidateForm(sub Submission) *ValidationError {
	fields := map[string]string{}
	required := map[string]string{
		"name":    sub.Name,
		"phone":   sub.Phone,
		"email":   sub.Email,
		"comment": sub.Comment,
	}
	for f, v := range required {
		if strings.TrimSpace(v) == "" {
			fields[f] = "required"
		}
	}
	if sub.Rating < 1 || sub.Rating > 5 {
		fields["rating"] = "must be between 1 and 5"
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// FlowState models the visitor's transient journey through the prompt.
// It exists so "leave another review" can wipe selection state without
// ever touching persisted records.
type FlowState struct {
	Rating    int
	BranchID  string
	Form      Submission
	Submitted bool
}

// Reset returns the flow to its initial state.
func (f *FlowState) Reset() {
	*f = FlowState{}
}
