package models

import (
	"encoding/json"
	"time"

	"github.com/uplink-dao/uplink-tweet/internal/state"
)

// QueueJob is a persisted row of the tweet queue. AccessToken and
// AccessSecret hold encrypted credential material; only the dispatcher
// decrypts them, transiently, for the duration of one posting attempt.
type QueueJob struct {
	ID           int64
	ContestID    int64
	JobContext   state.JobContext
	Payload      json.RawMessage
	AccessToken  string
	AccessSecret string
	Status       state.JobStatus
	Retries      int
	MaxRetries   int
	LastError    *string
	LockedBy     *string
	LockedAt     *time.Time
	Created      time.Time
}

// NewQueueJob carries the fields upstream contest and submission flows
// provide when enqueueing a job. Rows always start out ready.
type NewQueueJob struct {
	ContestID    int64
	JobContext   state.JobContext
	Thread       []ThreadItem
	AccessToken  string
	AccessSecret string
	Created      time.Time
}

// Thread decodes the payload into its ordered thread items.
func (j *QueueJob) Thread() ([]ThreadItem, error) {
	var items []ThreadItem
	if err := json.Unmarshal(j.Payload, &items); err != nil {
		return nil, err
	}
	return items, nil
}
