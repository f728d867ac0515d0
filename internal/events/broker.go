package events

import "context"

// Broker carries contest-announced events from the dispatcher to its
// subscribers. The transport owns serialization: publishers hand over
// typed events, consumers receive typed events, and malformed payloads
// never surface past the broker.
type Broker interface {
	PublishContestAnnounced(event ContestAnnounced) error
	ConsumeContestAnnounced(ctx context.Context) (<-chan ContestAnnounced, error)
	Close() error
}
