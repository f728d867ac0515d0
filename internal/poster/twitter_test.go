package poster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uplink-dao/uplink-tweet/internal/models"
)

func newTestPoster(t *testing.T, handler http.Handler) (Poster, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	factory := NewTwitterFactory("consumer-key", "consumer-secret",
		WithBaseURLs(server.URL, server.URL))
	return factory.New("access-token", "access-secret"), server
}

func TestTwitterPoster_PostThread(t *testing.T) {
	var requests []tweetRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"42","username":"uplink"}}`)
	})
	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		var body tweetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, body)
		fmt.Fprintf(w, `{"data":{"id":"%d"}}`, 100+len(requests))
	})

	p, _ := newTestPoster(t, mux)

	items := []models.ThreadItem{
		{Text: "contest is live"},
		{Text: "enter here"},
	}

	tweetID, err := p.PostThread(context.Background(), items, "")
	require.NoError(t, err)
	assert.Equal(t, "101", tweetID)

	require.Len(t, requests, 2)
	assert.Empty(t, requests[0].Reply)
	require.NotNil(t, requests[1].Reply)
	assert.Equal(t, "101", requests[1].Reply.InReplyToTweetID)
}

func TestTwitterPoster_PostThread_QuotesParent(t *testing.T) {
	var first tweetRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"42"}}`)
	})
	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&first))
		fmt.Fprint(w, `{"data":{"id":"555"}}`)
	})

	p, _ := newTestPoster(t, mux)

	tweetID, err := p.PostThread(context.Background(),
		[]models.ThreadItem{{Text: "check out this submission"}}, "999")
	require.NoError(t, err)
	assert.Equal(t, "555", tweetID)
	assert.Equal(t, "999", first.QuoteTweetID)
}

func TestTwitterPoster_PostThread_EmptyThread(t *testing.T) {
	p, _ := newTestPoster(t, http.NewServeMux())

	_, err := p.PostThread(context.Background(), nil, "")
	var postingErr *PostingError
	require.ErrorAs(t, err, &postingErr)
	assert.Contains(t, postingErr.Message, "invalid thread")
}

func TestTwitterPoster_PostThread_SessionRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"title":"Unauthorized"}`)
	})

	p, _ := newTestPoster(t, mux)

	_, err := p.PostThread(context.Background(),
		[]models.ThreadItem{{Text: "hello"}}, "")
	var postingErr *PostingError
	require.ErrorAs(t, err, &postingErr)
	assert.Equal(t, "validate session", postingErr.Op)
	assert.Contains(t, postingErr.Message, "401")
}

func TestTwitterPoster_PostThread_UpstreamRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"42"}}`)
	})
	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"title":"Too Many Requests"}`)
	})

	p, _ := newTestPoster(t, mux)

	_, err := p.PostThread(context.Background(),
		[]models.ThreadItem{{Text: "hello"}}, "")
	var postingErr *PostingError
	require.ErrorAs(t, err, &postingErr)
	// The upstream message survives verbatim for operator diagnosis.
	assert.Contains(t, postingErr.Message, "Too Many Requests")
}

func TestTwitterPoster_UploadMedia(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/media/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/1.1/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fmt.Fprint(w, `{"media_id_string":"777"}`)
	})

	p, server := newTestPoster(t, mux)

	item := models.ThreadItem{
		Media: &models.MediaRef{Type: "image/png", Size: "1024", URL: server.URL + "/media/cat.png"},
	}

	mediaID, err := p.UploadMedia(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "777", mediaID)
}

func TestTwitterPoster_UploadMedia_NoMedia(t *testing.T) {
	p, _ := newTestPoster(t, http.NewServeMux())

	_, err := p.UploadMedia(context.Background(), models.ThreadItem{Text: "text only"})
	assert.Error(t, err)
}

func TestTwitterPoster_UploadMedia_Rejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/media/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/1.1/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errors":[{"message":"media type unrecognized"}]}`)
	})

	p, server := newTestPoster(t, mux)

	item := models.ThreadItem{
		Media: &models.MediaRef{Type: "image/png", Size: "1024", URL: server.URL + "/media/cat.png"},
	}

	_, err := p.UploadMedia(context.Background(), item)
	var postingErr *PostingError
	require.ErrorAs(t, err, &postingErr)
	assert.Equal(t, "upload media", postingErr.Op)
	assert.Contains(t, postingErr.Message, "media type unrecognized")
}
