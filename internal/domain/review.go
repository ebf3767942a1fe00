package domain

import "time"

// ReviewSource records which way the gating decision routed a submission.
type ReviewSource string

const (
	SourceInternal         ReviewSource = "internal"
	SourceExternal         ReviewSource = "external"
	SourceExternalOverride ReviewSource = "external_override" // three-star escape hatch
)

// ReviewStatus is the owner-side triage state of a feedback record.
type ReviewStatus string

const (
	StatusPending   ReviewStatus = "pending"
	StatusPublished ReviewStatus = "published"
	StatusRejected  ReviewStatus = "rejected"
)

type Review struct {
	ID         string
	TenantID   string
	BranchName string // chosen branch name + address, joined at submission time
	Rating     int    // 1..5
	Comment    *string
	Name       *string
	Phone      *string
	Email      *string
	Source     ReviewSource
	Status     ReviewStatus
	Replied    bool
	CreatedAt  time.Time
}
