package dispatch

import (
	"context"
	"time"

	"github.com/uplink-dao/uplink-tweet/internal/events"
	"github.com/uplink-dao/uplink-tweet/internal/models"
	"github.com/uplink-dao/uplink-tweet/internal/poster"
	"github.com/uplink-dao/uplink-tweet/internal/state"
)

type MockQueueStore struct {
	InsertFunc        func(ctx context.Context, job models.NewQueueJob) (int64, error)
	FindByIDFunc      func(ctx context.Context, id int64) (*models.QueueJob, error)
	FetchEligibleFunc func(ctx context.Context, now time.Time, limit int) ([]models.QueueJob, error)
	ClaimFunc         func(ctx context.Context, jobID int64, instance string) (bool, error)
	MarkSuccessFunc   func(ctx context.Context, jobID int64) error
	MarkFailureFunc   func(ctx context.Context, jobID int64, errMsg string, retries, maxRetries int) error
	ReleaseStaleFunc  func(ctx context.Context, ttl time.Duration) error
	CountByStatusFunc func(ctx context.Context) (map[state.JobStatus]int, error)
	CloseFunc         func() error
}

func (m *MockQueueStore) Insert(ctx context.Context, job models.NewQueueJob) (int64, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, job)
	}
	return 0, nil
}

func (m *MockQueueStore) FindByID(ctx context.Context, id int64) (*models.QueueJob, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockQueueStore) FetchEligible(ctx context.Context, now time.Time, limit int) ([]models.QueueJob, error) {
	if m.FetchEligibleFunc != nil {
		return m.FetchEligibleFunc(ctx, now, limit)
	}
	return nil, nil
}

func (m *MockQueueStore) Claim(ctx context.Context, jobID int64, instance string) (bool, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, jobID, instance)
	}
	return true, nil
}

func (m *MockQueueStore) MarkSuccess(ctx context.Context, jobID int64) error {
	if m.MarkSuccessFunc != nil {
		return m.MarkSuccessFunc(ctx, jobID)
	}
	return nil
}

func (m *MockQueueStore) MarkFailure(ctx context.Context, jobID int64, errMsg string, retries, maxRetries int) error {
	if m.MarkFailureFunc != nil {
		return m.MarkFailureFunc(ctx, jobID, errMsg, retries, maxRetries)
	}
	return nil
}

func (m *MockQueueStore) ReleaseStale(ctx context.Context, ttl time.Duration) error {
	if m.ReleaseStaleFunc != nil {
		return m.ReleaseStaleFunc(ctx, ttl)
	}
	return nil
}

func (m *MockQueueStore) CountByStatus(ctx context.Context) (map[state.JobStatus]int, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	return map[state.JobStatus]int{}, nil
}

func (m *MockQueueStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

type MockContestStore struct {
	TweetIDFunc    func(ctx context.Context, contestID int64) (string, error)
	SetTweetIDFunc func(ctx context.Context, contestID int64, tweetID string) error
}

func (m *MockContestStore) TweetID(ctx context.Context, contestID int64) (string, error) {
	if m.TweetIDFunc != nil {
		return m.TweetIDFunc(ctx, contestID)
	}
	return "", nil
}

func (m *MockContestStore) SetTweetID(ctx context.Context, contestID int64, tweetID string) error {
	if m.SetTweetIDFunc != nil {
		return m.SetTweetIDFunc(ctx, contestID, tweetID)
	}
	return nil
}

type MockPoster struct {
	ValidateSessionFunc func(ctx context.Context) error
	UploadMediaFunc     func(ctx context.Context, item models.ThreadItem) (string, error)
	PostThreadFunc      func(ctx context.Context, items []models.ThreadItem, quoteTweetID string) (string, error)
}

func (m *MockPoster) ValidateSession(ctx context.Context) error {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx)
	}
	return nil
}

func (m *MockPoster) UploadMedia(ctx context.Context, item models.ThreadItem) (string, error) {
	if m.UploadMediaFunc != nil {
		return m.UploadMediaFunc(ctx, item)
	}
	return "media-id", nil
}

func (m *MockPoster) PostThread(ctx context.Context, items []models.ThreadItem, quoteTweetID string) (string, error) {
	if m.PostThreadFunc != nil {
		return m.PostThreadFunc(ctx, items, quoteTweetID)
	}
	return "tweet-id", nil
}

type MockPosterFactory struct {
	NewFunc func(accessToken, accessSecret string) poster.Poster
	Poster  *MockPoster
}

func (m *MockPosterFactory) New(accessToken, accessSecret string) poster.Poster {
	if m.NewFunc != nil {
		return m.NewFunc(accessToken, accessSecret)
	}
	if m.Poster != nil {
		return m.Poster
	}
	return &MockPoster{}
}

type MockBroker struct {
	PublishFunc func(event events.ContestAnnounced) error
	ConsumeFunc func(ctx context.Context) (<-chan events.ContestAnnounced, error)
	CloseFunc   func() error
}

func (m *MockBroker) PublishContestAnnounced(event events.ContestAnnounced) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(event)
	}
	return nil
}

func (m *MockBroker) ConsumeContestAnnounced(ctx context.Context) (<-chan events.ContestAnnounced, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx)
	}
	ch := make(chan events.ContestAnnounced)
	close(ch)
	return ch, nil
}

func (m *MockBroker) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

type MockLockManager struct {
	AcquireFunc    func(ctx context.Context, lockID int) error
	TryAcquireFunc func(ctx context.Context, lockID int) (bool, error)
	ReleaseFunc    func(ctx context.Context, lockID int) error
}

func (m *MockLockManager) Acquire(ctx context.Context, lockID int) error {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, lockID)
	}
	return nil
}

func (m *MockLockManager) TryAcquire(ctx context.Context, lockID int) (bool, error) {
	if m.TryAcquireFunc != nil {
		return m.TryAcquireFunc(ctx, lockID)
	}
	return true, nil
}

func (m *MockLockManager) Release(ctx context.Context, lockID int) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, lockID)
	}
	return nil
}
