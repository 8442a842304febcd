package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket serves path-style S3 requests for a single bucket.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/media-bucket/")

	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		b.objects[key] = data
		b.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := b.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := b.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T) (*R2Storage, *fakeBucket) {
	t.Helper()

	bucket := &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "auto",
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
	})
	return &R2Storage{client: client, bucket: "media-bucket"}, bucket
}

func TestR2Storage_UploadExistsDownload(t *testing.T) {
	storage, bucket := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Upload(ctx, "media/7/abc", []byte("png-bytes"), "image/png"))
	assert.Equal(t, "image/png", bucket.types["media/7/abc"])

	ok, err := storage.Exists(ctx, "media/7/abc")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := storage.Download(ctx, "media/7/abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestR2Storage_ExistsMissing(t *testing.T) {
	storage, _ := newTestStorage(t)

	ok, err := storage.Exists(context.Background(), "media/7/nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
