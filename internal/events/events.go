// Package events carries the announcement event stream. The dispatcher is
// a publisher; the cache invalidator is one subscriber among potentially
// others.
package events

import (
	"encoding/json"
	"time"
)

// ContestAnnounced is emitted exactly once per contest, when its
// announcement job first succeeds.
type ContestAnnounced struct {
	ContestID   int64     `json:"contest_id"`
	TweetID     string    `json:"tweet_id"`
	AnnouncedAt time.Time `json:"announced_at"`
}

func (e ContestAnnounced) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func UnmarshalContestAnnounced(body []byte) (ContestAnnounced, error) {
	var e ContestAnnounced
	err := json.Unmarshal(body, &e)
	return e, err
}
