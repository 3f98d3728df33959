// Package upstream fetches and normalizes the two VATSIM-style live feeds
// (the pilot/controller snapshot and the transceiver list) once per poll
// tick. The HTTP helper shape follows the retired providers.LiveAPIProvider:
// a shared client, a doGET helper that maps non-2xx and decode failures to
// a typed error, and one rate limiter that each Fetch (both endpoints
// together) waits on.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/infinite-experiment/vatwatch/internal/config"
	"github.com/infinite-experiment/vatwatch/internal/domain"
	"github.com/infinite-experiment/vatwatch/internal/errs"
	"github.com/infinite-experiment/vatwatch/internal/logging"
)

// Client fetches the snapshot and transceiver feeds and normalizes them
// into domain samples.
type Client struct {
	snapshotURL     string
	transceiversURL string
	http            *http.Client
	limiter         *rate.Limiter
}

// New builds a Client from configuration. The limiter allows one fetch per
// PollInterval plus a small burst, which is generous enough to never be the
// throttling reason in practice but keeps a runaway caller (e.g. a manual
// trigger from the API) from hammering the upstream feed.
func New(cfg *config.Config) *Client {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		snapshotURL:     cfg.SnapshotURL,
		transceiversURL: cfg.TransceiversURL,
		http:            &http.Client{Timeout: cfg.UpstreamTimeout},
		limiter:         rate.NewLimiter(rate.Every(interval), 2),
	}
}

// Fetch retrieves both feeds concurrently and normalizes them into a single
// Snapshot. A snapshot-endpoint failure (transport/HTTP-status failure,
// kind UPSTREAM_UNAVAILABLE, or decode failure, kind UPSTREAM_MALFORMED)
// aborts the tick, per the propagation policy. A transceivers-endpoint
// failure is tolerated independently, per §4.1: it is logged and the
// snapshot is still normalized and returned with an empty transceiver list.
func (c *Client) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.KindUpstreamUnavailable, "rate limiter wait failed", err)
	}

	var raw rawSnapshot
	var transceivers []rawTransceiver
	var xcvrErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.doGET(gctx, c.snapshotURL, &raw)
	})
	g.Go(func() error {
		xcvrErr = c.doGET(gctx, c.transceiversURL, &transceivers)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if xcvrErr != nil {
		logging.WithComponent("upstream").Warnw("transceivers fetch failed, continuing with empty transceiver list", "error", xcvrErr)
		transceivers = nil
	}

	snap, err := normalize(raw, transceivers)
	if err != nil {
		return nil, err
	}
	logging.Debug("upstream snapshot fetched", "pilots", len(snap.Pilots), "controllers", len(snap.Controllers), "transceivers", len(snap.Transceivers))
	return snap, nil
}

func (c *Client) doGET(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Wrap(errs.KindUpstreamUnavailable, "failed to build request for "+url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindUpstreamUnavailable, "request failed for "+url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.KindUpstreamUnavailable, "failed to read response body from "+url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.New(errs.KindUpstreamUnavailable, fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errs.Wrap(errs.KindUpstreamMalformed, "failed to decode response from "+url, err)
	}
	return nil
}
