package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/uplink-dao/uplink-tweet/internal/models"
)

const (
	defaultAPIBaseURL    = "https://api.twitter.com"
	defaultUploadBaseURL = "https://upload.twitter.com"
)

// TwitterFactory builds OAuth 1.0a user-context posters from the
// application's consumer credentials.
type TwitterFactory struct {
	config        *oauth1.Config
	apiBaseURL    string
	uploadBaseURL string
	timeout       time.Duration
}

type TwitterFactoryOption func(*TwitterFactory)

// WithBaseURLs overrides the API endpoints. Used by tests.
func WithBaseURLs(api, upload string) TwitterFactoryOption {
	return func(f *TwitterFactory) {
		f.apiBaseURL = api
		f.uploadBaseURL = upload
	}
}

// WithTimeout caps the duration of each outbound call.
func WithTimeout(d time.Duration) TwitterFactoryOption {
	return func(f *TwitterFactory) {
		f.timeout = d
	}
}

func NewTwitterFactory(consumerKey, consumerSecret string, opts ...TwitterFactoryOption) *TwitterFactory {
	f := &TwitterFactory{
		config:        oauth1.NewConfig(consumerKey, consumerSecret),
		apiBaseURL:    defaultAPIBaseURL,
		uploadBaseURL: defaultUploadBaseURL,
		timeout:       30 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *TwitterFactory) New(accessToken, accessSecret string) Poster {
	token := oauth1.NewToken(accessToken, accessSecret)
	client := f.config.Client(oauth1.NoContext, token)
	client.Timeout = f.timeout

	return &TwitterPoster{
		client:        client,
		media:         &http.Client{Timeout: f.timeout},
		apiBaseURL:    f.apiBaseURL,
		uploadBaseURL: f.uploadBaseURL,
	}
}

// TwitterPoster posts threads through the v2 API, uploading media through
// the v1.1 upload endpoint first.
type TwitterPoster struct {
	client        *http.Client
	media         *http.Client
	apiBaseURL    string
	uploadBaseURL string
}

type tweetRequest struct {
	Text         string      `json:"text,omitempty"`
	Media        *tweetMedia `json:"media,omitempty"`
	QuoteTweetID string      `json:"quote_tweet_id,omitempty"`
	Reply        *tweetReply `json:"reply,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type mediaUploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

func (p *TwitterPoster) ValidateSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+"/2/users/me", nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &PostingError{Op: "validate session", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &PostingError{Op: "validate session", Message: readErrorBody(resp)}
	}
	return nil
}

// UploadMedia downloads the fragment's media from the platform's storage
// and re-uploads it to the posting API.
func (p *TwitterPoster) UploadMedia(ctx context.Context, item models.ThreadItem) (string, error) {
	if item.Media == nil {
		return "", errors.New("thread item has no media")
	}

	data, err := p.fetchMedia(ctx, item.Media.URL)
	if err != nil {
		return "", &PostingError{Op: "fetch media", Message: err.Error()}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.uploadBaseURL+"/1.1/media/upload.json", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &PostingError{Op: "upload media", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &PostingError{Op: "upload media", Message: readErrorBody(resp)}
	}

	var uploaded mediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", &PostingError{Op: "upload media", Message: err.Error()}
	}
	if uploaded.MediaIDString == "" {
		return "", &PostingError{Op: "upload media", Message: "empty media id in response"}
	}

	return uploaded.MediaIDString, nil
}

// PostThread publishes the fragments in order: the first tweet carries the
// quote id when set, each later tweet replies to the previous one. The
// returned id is the first tweet's, which is what gets recorded on the
// contest.
func (p *TwitterPoster) PostThread(ctx context.Context, items []models.ThreadItem, quoteTweetID string) (string, error) {
	if len(items) == 0 {
		return "", &PostingError{Op: "post thread", Message: "invalid thread"}
	}

	if err := p.ValidateSession(ctx); err != nil {
		return "", err
	}

	var firstID, prevID string
	for i, item := range items {
		body := tweetRequest{Text: item.Text}
		if item.MediaID != "" {
			body.Media = &tweetMedia{MediaIDs: []string{item.MediaID}}
		}
		if i == 0 {
			body.QuoteTweetID = quoteTweetID
		} else {
			body.Reply = &tweetReply{InReplyToTweetID: prevID}
		}

		id, err := p.postTweet(ctx, body)
		if err != nil {
			return "", err
		}
		if i == 0 {
			firstID = id
		}
		prevID = id
	}

	return firstID, nil
}

func (p *TwitterPoster) postTweet(ctx context.Context, body tweetRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiBaseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &PostingError{Op: "post tweet", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &PostingError{Op: "post tweet", Message: readErrorBody(resp)}
	}

	var posted tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&posted); err != nil {
		return "", &PostingError{Op: "post tweet", Message: err.Error()}
	}
	if posted.Data.ID == "" {
		return "", &PostingError{Op: "post tweet", Message: "empty tweet id in response"}
	}

	return posted.Data.ID, nil
}

func (p *TwitterPoster) fetchMedia(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.media.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media fetch returned %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func readErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(body) == 0 {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, body)
}
