// Package dispatch contains the tweet queue's dispatch cycle: selecting
// eligible jobs, posting their threads, and writing terminal state back.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/uplink-dao/uplink-tweet/internal/cipher"
	"github.com/uplink-dao/uplink-tweet/internal/config"
	"github.com/uplink-dao/uplink-tweet/internal/constants"
	"github.com/uplink-dao/uplink-tweet/internal/events"
	"github.com/uplink-dao/uplink-tweet/internal/lock"
	"github.com/uplink-dao/uplink-tweet/internal/logging"
	"github.com/uplink-dao/uplink-tweet/internal/models"
	"github.com/uplink-dao/uplink-tweet/internal/poster"
	"github.com/uplink-dao/uplink-tweet/internal/state"
	"github.com/uplink-dao/uplink-tweet/internal/store"
)

type Dispatcher struct {
	queue    store.QueueStore
	contests store.ContestStore
	cipher   *cipher.Cipher
	posters  poster.Factory
	broker   events.Broker
	lockMgr  lock.DistributedLockManager
	logger   *logging.Logger
	instance string

	batchSize   int
	maxRetries  int
	workerCount int64
	staleTTL    time.Duration

	now func() time.Time
}

func NewDispatcher(
	queue store.QueueStore,
	contests store.ContestStore,
	credCipher *cipher.Cipher,
	posters poster.Factory,
	broker events.Broker,
	lockMgr lock.DistributedLockManager,
	logger *logging.Logger,
	cfg *config.Config,
) *Dispatcher {
	return &Dispatcher{
		queue:       queue,
		contests:    contests,
		cipher:      credCipher,
		posters:     posters,
		broker:      broker,
		lockMgr:     lockMgr,
		logger:      logger,
		instance:    cfg.Instance,
		batchSize:   cfg.BatchSize,
		maxRetries:  cfg.MaxRetries,
		workerCount: int64(cfg.WorkerCount),
		staleTTL:    cfg.StaleClaimTTL,
		now:         time.Now,
	}
}

// RunCycle performs one dispatch tick. Cycles are mutually exclusive
// across instances: if another instance holds the dispatch lock this
// cycle is skipped rather than queued behind it.
func (d *Dispatcher) RunCycle(ctx context.Context) error {
	if d.lockMgr != nil {
		acquired, err := d.lockMgr.TryAcquire(ctx, constants.DispatchLock)
		if err != nil {
			return fmt.Errorf("dispatch lock: %w", err)
		}
		if !acquired {
			d.logger.Debug("dispatch lock held elsewhere, skipping cycle")
			return nil
		}
		defer d.lockMgr.Release(ctx, constants.DispatchLock)
	}

	if err := d.queue.ReleaseStale(ctx, d.staleTTL); err != nil {
		d.logger.Warn("failed to release stale claims", "error", err)
	}

	jobs, err := d.FetchEligibleJobs(ctx)
	if err != nil {
		return fmt.Errorf("fetch eligible jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	d.logger.Info("dispatching batch", "jobs", len(jobs))
	results := d.DispatchAll(ctx, jobs)

	var posted, failed int
	for _, r := range results {
		switch {
		case r.Status == state.StatusSuccess:
			posted++
		case r.Err != nil:
			failed++
		}
	}
	d.logger.Info("cycle complete", "posted", posted, "failed", failed,
		"deferred", len(results)-posted-failed)

	d.reportQueueDepth(ctx)
	return nil
}

// FetchEligibleJobs reads the batch for this cycle: ready or failed jobs
// below the retry cap, announcements only once due, announcements before
// dependents, oldest first. Pure read, no side effects.
func (d *Dispatcher) FetchEligibleJobs(ctx context.Context) ([]models.QueueJob, error) {
	return d.queue.FetchEligible(ctx, d.now(), d.batchSize)
}

// DispatchAll fans the batch out and returns one result per job, in
// batch order. Jobs are isolated from each other: a failure or panic in
// one never stops its siblings.
func (d *Dispatcher) DispatchAll(ctx context.Context, jobs []models.QueueJob) []models.JobResult {
	sem := semaphore.NewWeighted(d.workerCount)
	var wg sync.WaitGroup

	results := make([]models.JobResult, len(jobs))
	for i, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			d.logger.Warn("batch interrupted", "error", err)
			break
		}
		wg.Add(1)

		go func(i int, job models.QueueJob) {
			defer sem.Release(1)
			defer wg.Done()
			// A panic anywhere in handling, store calls included, must
			// stay inside this goroutine or it takes the whole batch
			// down with it.
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("job handling panicked",
						"job_id", job.ID, "panic", r)
					results[i] = models.JobResult{
						JobID:  job.ID,
						Status: job.Status,
						RanAt:  d.now(),
						Err:    fmt.Errorf("panic while dispatching: %v", r),
					}
				}
			}()
			results[i] = d.handleJob(ctx, job)
		}(i, job)
	}

	wg.Wait()
	return results
}

func (d *Dispatcher) handleJob(ctx context.Context, job models.QueueJob) models.JobResult {
	result := models.JobResult{JobID: job.ID, Status: job.Status, RanAt: d.now()}

	// Dependent jobs wait for their contest's announcement tweet; until
	// it exists they are skipped with no state change at all, and picked
	// up again on a later cycle.
	quoteTweetID := ""
	if job.JobContext == state.ContextDependent {
		tweetID, err := d.contests.TweetID(ctx, job.ContestID)
		if err != nil {
			d.logger.Error("contest lookup failed", "job_id", job.ID,
				"contest_id", job.ContestID, "error", err)
			result.Err = err
			return result
		}
		if tweetID == "" {
			d.logger.Debug("waiting for contest announcement",
				"job_id", job.ID, "contest_id", job.ContestID)
			return result
		}
		quoteTweetID = tweetID
	}

	claimed, err := d.queue.Claim(ctx, job.ID, d.instance)
	if err != nil {
		d.logger.Error("claim failed", "job_id", job.ID, "error", err)
		result.Err = err
		return result
	}
	if !claimed {
		d.logger.Debug("job claimed by another cycle", "job_id", job.ID)
		return result
	}

	tweetID, err := d.post(ctx, job, quoteTweetID)
	if err != nil {
		result.Err = err
		result.Status = d.fail(ctx, job, err)
		return result
	}

	if err := d.queue.MarkSuccess(ctx, job.ID); err != nil {
		d.logger.Error("failed to record success", "job_id", job.ID, "error", err)
	}
	d.logger.Info("tweet posted", "job_id", job.ID,
		"contest_id", job.ContestID, "tweet_id", tweetID)
	result.Status = state.StatusSuccess
	result.TweetID = tweetID

	if job.JobContext == state.ContextAnnouncement {
		if err := d.contests.SetTweetID(ctx, job.ContestID, tweetID); err != nil {
			d.logger.Error("failed to record contest tweet id",
				"contest_id", job.ContestID, "tweet_id", tweetID, "error", err)
		}
		d.publishAnnounced(job.ContestID, tweetID)
	}

	return result
}

// post decrypts the job's credentials, uploads any media, and publishes
// the thread. Panics are converted to ordinary failures so a broken
// payload cannot take down the batch.
func (d *Dispatcher) post(ctx context.Context, job models.QueueJob, quoteTweetID string) (tweetID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while posting: %v", r)
		}
	}()

	accessToken, err := d.cipher.Decrypt(job.AccessToken)
	if err != nil {
		return "", fmt.Errorf("access token: %w", err)
	}
	accessSecret, err := d.cipher.Decrypt(job.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("access secret: %w", err)
	}

	items, err := job.Thread()
	if err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}

	p := d.posters.New(accessToken, accessSecret)

	// Media uploads run concurrently, but each result lands back at its
	// own index so the thread order never changes.
	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		if items[i].Media == nil {
			continue
		}
		i := i
		g.Go(func() error {
			mediaID, err := p.UploadMedia(gctx, items[i])
			if err != nil {
				return err
			}
			items[i].MediaID = mediaID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return p.PostThread(ctx, items, quoteTweetID)
}

// fail records the failed attempt and returns the status the job landed
// in: failed if it has attempts left, dead-lettered once the cap is hit.
func (d *Dispatcher) fail(ctx context.Context, job models.QueueJob, cause error) state.JobStatus {
	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = d.maxRetries
	}

	d.logger.Warn("job failed", "job_id", job.ID,
		"attempt", job.Retries+1, "max", maxRetries, "error", cause)

	if err := d.queue.MarkFailure(ctx, job.ID, cause.Error(), job.Retries, maxRetries); err != nil {
		d.logger.Error("failed to record job failure", "job_id", job.ID, "error", err)
	}

	if job.Retries+1 >= maxRetries {
		return state.StatusDeadLettered
	}
	return state.StatusFailed
}

func (d *Dispatcher) publishAnnounced(contestID int64, tweetID string) {
	if d.broker == nil {
		return
	}

	event := events.ContestAnnounced{
		ContestID:   contestID,
		TweetID:     tweetID,
		AnnouncedAt: d.now(),
	}

	// Event delivery is best effort; the tweet is already out and the
	// job already succeeded.
	if err := d.broker.PublishContestAnnounced(event); err != nil {
		d.logger.Warn("failed to publish announcement event",
			"contest_id", contestID, "error", err)
	}
}

func (d *Dispatcher) reportQueueDepth(ctx context.Context) {
	counts, err := d.queue.CountByStatus(ctx)
	if err != nil {
		d.logger.Warn("failed to count queue statuses", "error", err)
		return
	}

	if dead := counts[state.StatusDeadLettered]; dead > 0 {
		d.logger.Warn("dead-lettered jobs need operator attention", "count", dead)
	}
	d.logger.Debug("queue depth",
		"ready", counts[state.StatusReady],
		"failed", counts[state.StatusFailed],
		"pending", counts[state.StatusPending],
		"success", counts[state.StatusSuccess],
		"dead_lettered", counts[state.StatusDeadLettered],
	)
}
