// Package twitter posts to X/Twitter on behalf of one account using OAuth 1.0a
// user-context credentials.
package twitter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"
)

const (
	DefaultUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	DefaultAPIURL    = "https://api.twitter.com/2"
)

var (
	ErrIncompleteCredentials = errors.New("twitter: incomplete credentials")
	ErrMediaProcessing       = errors.New("twitter: media processing failed")
)

// Client is the capability the publisher needs from the network.
type Client interface {
	UploadMedia(ctx context.Context, data []byte, contentType string) (string, error)
	Post(ctx context.Context, text string, mediaIDs []string) (string, error)
}

type ClientFactory interface {
	NewClient(creds Credentials) (Client, error)
}

type Credentials struct {
	AppKey       string
	AppSecret    string
	AccessToken  string
	AccessSecret string
}

func (c Credentials) validate() error {
	if c.AppKey == "" || c.AppSecret == "" || c.AccessToken == "" || c.AccessSecret == "" {
		return ErrIncompleteCredentials
	}
	return nil
}

type Options struct {
	UploadURL         string
	APIURL            string
	RequestsPerSecond float64
	Timeout           time.Duration
	ChunkSize         int
	MaxStatusChecks   int
}

func (o Options) withDefaults() Options {
	if o.UploadURL == "" {
		o.UploadURL = DefaultUploadURL
	}
	if o.APIURL == "" {
		o.APIURL = DefaultAPIURL
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Minute
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 4 * 1024 * 1024
	}
	if o.MaxStatusChecks <= 0 {
		o.MaxStatusChecks = 30
	}
	return o
}

type factory struct {
	opts Options
}

func NewFactory(opts Options) ClientFactory {
	return &factory{opts: opts.withDefaults()}
}

func (f *factory) NewClient(creds Credentials) (Client, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}

	config := oauth1.NewConfig(creds.AppKey, creds.AppSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)

	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, &http.Client{Timeout: f.opts.Timeout})
	httpClient := config.Client(ctx, token)

	return &client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(f.opts.RequestsPerSecond), 1),
		opts:    f.opts,
		sleep:   sleepContext,
	}, nil
}

type client struct {
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
	sleep   func(ctx context.Context, d time.Duration) error
}

func (c *client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
