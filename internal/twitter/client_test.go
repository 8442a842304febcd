package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{
	AppKey:       "app-key",
	AppSecret:    "app-secret",
	AccessToken:  "access-token",
	AccessSecret: "access-secret",
}

type fakeAPI struct {
	mu           sync.Mutex
	commands     []string
	appended     []byte
	statusChecks int
	finalize     string
	tweets       []tweetRequest
	authHeaders  []string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

		command := r.URL.Query().Get("command")
		if r.Method == http.MethodPost {
			command = r.FormValue("command")
		}
		f.commands = append(f.commands, command)

		switch command {
		case "INIT":
			assert.Equal(t, "video/mp4", r.FormValue("media_type"))
			assert.Equal(t, "tweet_video", r.FormValue("media_category"))
			_, _ = io.WriteString(w, `{"media_id_string":"m-1"}`)
		case "APPEND":
			file, _, err := r.FormFile("media")
			if !assert.NoError(t, err) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			chunk, _ := io.ReadAll(file)
			f.appended = append(f.appended, chunk...)
			w.WriteHeader(http.StatusNoContent)
		case "FINALIZE":
			_, _ = io.WriteString(w, f.finalize)
		case "STATUS":
			f.statusChecks++
			_, _ = io.WriteString(w, `{"media_id_string":"m-1","processing_info":{"state":"succeeded"}}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

		var req tweetRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.tweets = append(f.tweets, req)

		if req.Text == "boom" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"detail":"duplicate content"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"1789","text":"ok"}}`)
	})

	return mux
}

func newTestClient(t *testing.T, api *fakeAPI) *client {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	f := NewFactory(Options{
		UploadURL:         srv.URL + "/upload",
		APIURL:            srv.URL + "/2",
		RequestsPerSecond: 1000,
		ChunkSize:         4,
	})
	c, err := f.NewClient(testCreds)
	require.NoError(t, err)

	impl := c.(*client)
	impl.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return impl
}

func TestNewClient_IncompleteCredentials(t *testing.T) {
	f := NewFactory(Options{})

	creds := testCreds
	creds.AccessSecret = ""
	_, err := f.NewClient(creds)
	assert.ErrorIs(t, err, ErrIncompleteCredentials)
}

func TestUploadMedia_ChunkedWithProcessing(t *testing.T) {
	api := &fakeAPI{finalize: `{"media_id_string":"m-1","processing_info":{"state":"pending","check_after_secs":1}}`}
	c := newTestClient(t, api)

	payload := []byte("0123456789")
	id, err := c.UploadMedia(context.Background(), payload, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "m-1", id)

	assert.Equal(t, []string{"INIT", "APPEND", "APPEND", "APPEND", "FINALIZE", "STATUS"}, api.commands)
	assert.Equal(t, payload, api.appended)
	assert.Equal(t, 1, api.statusChecks)

	for _, h := range api.authHeaders {
		assert.True(t, strings.HasPrefix(h, "OAuth "), "request must be OAuth1 signed")
	}
}

func TestUploadMedia_ProcessingFailed(t *testing.T) {
	api := &fakeAPI{finalize: `{"media_id_string":"m-1","processing_info":{"state":"failed","error":{"message":"bad codec"}}}`}
	c := newTestClient(t, api)

	_, err := c.UploadMedia(context.Background(), []byte("abc"), "video/mp4")
	assert.ErrorIs(t, err, ErrMediaProcessing)
	assert.Contains(t, err.Error(), "bad codec")
}

func TestUploadMedia_Empty(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})
	_, err := c.UploadMedia(context.Background(), nil, "image/png")
	assert.Error(t, err)
}

func TestPost_TextOnly(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	id, err := c.Post(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "1789", id)

	require.Len(t, api.tweets, 1)
	assert.Equal(t, "hello", api.tweets[0].Text)
	assert.Nil(t, api.tweets[0].Media)
}

func TestPost_WithMedia(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	_, err := c.Post(context.Background(), "", []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, api.tweets, 1)
	require.NotNil(t, api.tweets[0].Media)
	assert.Equal(t, []string{"a", "b"}, api.tweets[0].Media.MediaIDs)
}

func TestPost_APIError(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})

	_, err := c.Post(context.Background(), "boom", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "duplicate content")
}

func TestMediaCategory(t *testing.T) {
	assert.Equal(t, "tweet_video", mediaCategory("video/quicktime"))
	assert.Equal(t, "tweet_gif", mediaCategory("image/gif"))
	assert.Equal(t, "tweet_image", mediaCategory("image/jpeg"))
}

type failingWriter struct {
	budget int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if len(p) > w.budget {
		return 0, errors.New("disk full")
	}
	w.budget -= len(p)
	return len(p), nil
}

func TestWriteAppendForm(t *testing.T) {
	var body bytes.Buffer
	contentType, err := writeAppendForm(&body, "m-1", 3, []byte("chunk"))
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	form, err := multipart.NewReader(&body, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"APPEND"}, form.Value["command"])
	assert.Equal(t, []string{"m-1"}, form.Value["media_id"])
	assert.Equal(t, []string{"3"}, form.Value["segment_index"])
	require.Len(t, form.File["media"], 1)
}

func TestWriteAppendForm_PropagatesWriteErrors(t *testing.T) {
	for _, budget := range []int{0, 120, 250} {
		_, err := writeAppendForm(&failingWriter{budget: budget}, "m-1", 0, []byte("chunk"))
		assert.Error(t, err, "budget %d", budget)
	}
}
