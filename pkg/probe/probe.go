package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stevedore/pkg/backoff"
)

// maxBodyBytes caps how much of a response we read when looking for the
// expected content.
const maxBodyBytes = 64 * 1024

var (
	// ErrBadStatus is returned when the service answers outside the 2xx range.
	ErrBadStatus = errors.New("unexpected status")
	// ErrWrongBody is returned when the service answers 2xx but the response
	// does not contain the expected content. This is what distinguishes the
	// deployed service from whatever else might be squatting on the port.
	ErrWrongBody = errors.New("expected content missing from response")
)

// Prober checks that a deployed service answers HTTP on its published port.
type Prober interface {
	Fetch(ctx context.Context, url, want string) error
	WaitReachable(ctx context.Context, url, want string, cfg backoff.Config) error
}

// HTTP probes a service over a plain HTTP client. The zero value uses a
// client with a five second per-request timeout.
type HTTP struct {
	Client *http.Client
}

func New() HTTP {
	return HTTP{Client: &http.Client{Timeout: 5 * time.Second}}
}

func (p HTTP) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return &http.Client{Timeout: 5 * time.Second}
}

// Fetch performs a single GET against url and checks the answer. It succeeds
// only when the status is 2xx and, if want is non-empty, the body contains
// want.
func (p HTTP) Fetch(ctx context.Context, url, want string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("reach %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s from %s", ErrBadStatus, resp.Status, url)
	}
	if want != "" && !strings.Contains(string(body), want) {
		return fmt.Errorf("%w at %s", ErrWrongBody, url)
	}

	return nil
}

// WaitReachable retries Fetch under the given backoff until the service
// answers correctly or the wait budget runs out.
func (p HTTP) WaitReachable(ctx context.Context, url, want string, cfg backoff.Config) error {
	return backoff.Until(ctx, cfg, func(ctx context.Context) error {
		return p.Fetch(ctx, url, want)
	})
}
