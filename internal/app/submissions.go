package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reviewloop/internal/domain"
)

// SubmissionService runs the public review-gating flow: apply the
// decision rule, persist exactly one record per completed submission,
// and fire the best-effort admin notification on internal feedback.
type SubmissionService struct {
	tenants      domain.TenantRepository
	reviews      domain.ReviewRepository
	settings     domain.SettingsRepository
	notifier     domain.Notifier
	fallbackLink string
	now          func() time.Time
}

func NewSubmissionService(t domain.TenantRepository, r domain.ReviewRepository, s domain.SettingsRepository, n domain.Notifier, fallbackLink string) *SubmissionService {
	return &SubmissionService{
		tenants:      t,
		reviews:      r,
		settings:     s,
		notifier:     n,
		fallbackLink: fallbackLink,
		now:          time.Now,
	}
}

// SubmitResult is what the public handler renders: either a redirect to
// the external platform or the persisted internal record, or a signal
// that the flow needs more input before anything is written.
type SubmitResult struct {
	Decision domain.Decision
	Review   *domain.Review
}

// Submit resolves the slug, decides the route, and persists the outcome.
// Nothing is written while the decision still needs input (branch
// selection, form fields); exactly one record is appended once a path
// completes.
func (s *SubmissionService) Submit(ctx context.Context, slug string, sub domain.Submission) (SubmitResult, error) {
	t, err := s.tenants.GetTenantBySlug(ctx, slug)
	if err != nil {
		return SubmitResult{}, err
	}
	if sub.Rating < 1 || sub.Rating > 5 {
		return SubmitResult{}, &domain.ValidationError{Fields: map[string]string{"rating": "must be between 1 and 5"}}
	}

	dec := domain.Decide(&t, sub, s.fallbackLink)
	if dec.NeedsBranch {
		return SubmitResult{Decision: dec}, nil
	}

	switch dec.Route {
	case domain.RouteExternal:
		// Lightweight provenance entry: rating, branch, routing outcome.
		r := s.buildReview(&t, sub, dec.Source)
		if err := s.reviews.CreateReview(ctx, r); err != nil {
			return SubmitResult{}, fmt.Errorf("record external review: %w", err)
		}
		return SubmitResult{Decision: dec, Review: &r}, nil

	case domain.RouteInternal:
		if verr := domain.ValidateForm(sub); verr != nil {
			return SubmitResult{Decision: dec}, verr
		}
		r := s.buildReview(&t, sub, domain.SourceInternal)
		if err := s.reviews.CreateReview(ctx, r); err != nil {
			return SubmitResult{}, fmt.Errorf("persist feedback: %w", err)
		}
		s.notify(ctx, r)
		return SubmitResult{Decision: dec, Review: &r}, nil
	}

	return SubmitResult{Decision: dec}, nil
}

func (s *SubmissionService) buildReview(t *domain.Tenant, sub domain.Submission, src domain.ReviewSource) domain.Review {
	r := domain.Review{
		ID:         uuid.NewString(),
		TenantID:   t.ID,
		BranchName: domain.BranchLabel(t.BranchByID(sub.BranchID)),
		Rating:     sub.Rating,
		Source:     src,
		Status:     domain.StatusPending,
		Replied:    false,
		CreatedAt:  s.now().UTC(),
	}
	if src == domain.SourceInternal {
		r.Comment = trimmed(sub.Comment)
		r.Name = trimmed(sub.Name)
		r.Phone = trimmed(sub.Phone)
		r.Email = trimmed(sub.Email)
	}
	return r
}

// notify is best effort; a down webhook must not fail the submission.
func (s *SubmissionService) notify(ctx context.Context, r domain.Review) {
	if s.notifier == nil || s.settings == nil {
		return
	}
	cfg, err := s.settings.GetSettings(ctx)
	if err != nil || cfg.NotifyURL == nil || *cfg.NotifyURL == "" {
		return
	}
	if err := s.notifier.NotifyFeedback(ctx, *cfg.NotifyURL, r); err != nil {
		log.Warn().Err(err).Str("tenant", r.TenantID).Msg("feedback notification failed")
	}
}

func trimmed(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}
