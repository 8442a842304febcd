package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/twitter"
)

type postCall struct {
	Text     string
	MediaIDs []string
}

type fakeClient struct {
	mu           sync.Mutex
	contentTypes []string
	posts        []postCall
	uploadErr    error
	postErr      error
	// beforePost runs outside the mutex with the 1-based call number. A
	// non-nil error fails that call.
	beforePost func(ctx context.Context, call int) error
	postCalls  int
}

func (c *fakeClient) UploadMedia(ctx context.Context, data []byte, contentType string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploadErr != nil {
		return "", c.uploadErr
	}
	c.contentTypes = append(c.contentTypes, contentType)
	return fmt.Sprintf("h%d:%s", len(c.contentTypes), data), nil
}

func (c *fakeClient) Post(ctx context.Context, text string, mediaIDs []string) (string, error) {
	c.mu.Lock()
	c.postCalls++
	call, hook := c.postCalls, c.beforePost
	c.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, call); err != nil {
			return "", err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.postErr != nil {
		return "", c.postErr
	}
	c.posts = append(c.posts, postCall{Text: text, MediaIDs: mediaIDs})
	return fmt.Sprintf("post-%d", len(c.posts)), nil
}

func (c *fakeClient) postCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.posts)
}

type fakeFactory struct {
	client *fakeClient
	err    error
	seen   []twitter.Credentials
}

func (f *fakeFactory) NewClient(creds twitter.Credentials) (twitter.Client, error) {
	f.seen = append(f.seen, creds)
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeStorage) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStorage) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type fakeResolver struct {
	creds map[string]*models.Credential
	err   error
}

func (r *fakeResolver) ResolveCredential(ctx context.Context, groupID, accountID string) (*models.Credential, error) {
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.creds[groupID+"/"+accountID]
	if !ok {
		return nil, ErrNoCredentials
	}
	cp := *c
	return &cp, nil
}

type enqueued struct {
	ItemID string
	At     time.Time
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []enqueued
	err   error
}

func (q *fakeEnqueuer) EnqueuePublish(ctx context.Context, itemID string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, enqueued{ItemID: itemID, At: at})
	return nil
}

// pngBytes returns a minimal PNG header followed by a distinguishing suffix.
func pngBytes(suffix string) []byte {
	return append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, suffix...)
}

func jpegBytes(suffix string) []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, suffix...)
}
