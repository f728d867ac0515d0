// Package invalidator refreshes the front-end cache when contests are
// announced. It subscribes to the announcement event stream; the
// dispatcher never talks to the front end directly.
package invalidator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/uplink-dao/uplink-tweet/internal/events"
	"github.com/uplink-dao/uplink-tweet/internal/logging"
)

type Invalidator struct {
	host   string
	secret string
	client *http.Client
	logger *logging.Logger
}

func New(host, secret string, logger *logging.Logger) *Invalidator {
	return &Invalidator{
		host:   host,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type revalidateRequest struct {
	Tags   []string `json:"tags"`
	Secret string   `json:"secret"`
}

// Run consumes announcement events until ctx is cancelled. Invalidation
// is fire and forget: failures are logged and the stream moves on, since
// a stale cache entry is preferable to blocking dispatch.
func (inv *Invalidator) Run(ctx context.Context, broker events.Broker) error {
	msgs, err := broker.ConsumeContestAnnounced(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case announced, ok := <-msgs:
			if !ok {
				return nil
			}
			tag := fmt.Sprintf("contest/%d", announced.ContestID)
			if err := inv.Invalidate(ctx, []string{tag}); err != nil {
				inv.logger.Warn("cache invalidation failed",
					"contest_id", announced.ContestID, "error", err)
				continue
			}
			inv.logger.Info("cache invalidated",
				"contest_id", announced.ContestID, "tweet_id", announced.TweetID)
		}
	}
}

// Invalidate asks the front end to revalidate the given cache tags.
func (inv *Invalidator) Invalidate(ctx context.Context, tags []string) error {
	payload, err := json.Marshal(revalidateRequest{Tags: tags, Secret: inv.secret})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		inv.host+"/api/revalidate", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := inv.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revalidate returned %d", resp.StatusCode)
	}
	return nil
}
