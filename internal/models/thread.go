package models

// ThreadItem is one fragment of a tweet thread. A fragment carries text,
// an attached media reference, or both.
type ThreadItem struct {
	Text  string    `json:"text,omitempty"`
	Media *MediaRef `json:"media,omitempty"`

	// MediaID is filled in after the media has been uploaded. It is never
	// persisted; the queue row only stores the source reference.
	MediaID string `json:"-"`
}

// MediaRef points at media hosted by the platform's storage layer.
type MediaRef struct {
	Type string `json:"type"`
	Size string `json:"size"`
	URL  string `json:"url"`
}
