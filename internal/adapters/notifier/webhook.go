package notifier

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reviewloop/internal/adapters/observability"
	"reviewloop/internal/domain"
)

// Webhook posts new-feedback notifications to the admin-configured
// routing URL. Client-side rate limited with bounded retries; callers
// treat delivery as best effort.
type Webhook struct {
	hc *http.Client
	rl *rate.Limiter
}

func New(rps int) *Webhook {
	if rps <= 0 {
		rps = 5
	}
	return &Webhook{
		hc: &http.Client{Timeout: 10 * time.Second},
		rl: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type feedbackPayload struct {
	Event      string  `json:"event"`
	ReviewID   string  `json:"review_id"`
	TenantID   string  `json:"tenant_id"`
	BranchName string  `json:"branchname,omitempty"`
	Rating     int     `json:"rating"`
	Comment    *string `json:"comment,omitempty"`
	Name       *string `json:"name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	Source     string  `json:"source"`
	CreatedAt  string  `json:"created_at"`
}

func (w *Webhook) NotifyFeedback(ctx context.Context, url string, r domain.Review) error {
	body, err := json.Marshal(feedbackPayload{
		Event:      "feedback.created",
		ReviewID:   r.ID,
		TenantID:   r.TenantID,
		BranchName: r.BranchName,
		Rating:     r.Rating,
		Comment:    r.Comment,
		Name:       r.Name,
		Phone:      r.Phone,
		Email:      r.Email,
		Source:     string(r.Source),
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.post(ctx, url, body)
}

// post delivers with client-side rate limiting and retries on 429 and
// transient 5xx, honoring Retry-After when provided.
func (w *Webhook) post(ctx context.Context, url string, body []byte) error {
	if err := w.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "reviewloop/1.0")

		start := time.Now()
		resp, err := w.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("webhook", "notify", resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("webhook %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles per attempt (200ms, 400ms, 800ms...) with up to +50%
// jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
