package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type processingInfo struct {
	State          string `json:"state"`
	CheckAfterSecs int    `json:"check_after_secs"`
	Error          *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type uploadResponse struct {
	MediaIDString  string          `json:"media_id_string"`
	ProcessingInfo *processingInfo `json:"processing_info,omitempty"`
}

func mediaCategory(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "video/"):
		return "tweet_video"
	case ct == "image/gif":
		return "tweet_gif"
	default:
		return "tweet_image"
	}
}

// UploadMedia runs the chunked INIT/APPEND/FINALIZE sequence and waits for
// server-side processing when the provider asks for it.
func (c *client) UploadMedia(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("twitter: empty media payload")
	}

	initForm := url.Values{}
	initForm.Set("command", "INIT")
	initForm.Set("total_bytes", strconv.Itoa(len(data)))
	initForm.Set("media_type", contentType)
	initForm.Set("media_category", mediaCategory(contentType))

	var initResp uploadResponse
	if err := c.postForm(ctx, initForm, &initResp); err != nil {
		return "", fmt.Errorf("media INIT: %w", err)
	}
	mediaID := initResp.MediaIDString
	if mediaID == "" {
		return "", fmt.Errorf("media INIT: missing media id")
	}

	for segment, offset := 0, 0; offset < len(data); segment, offset = segment+1, offset+c.opts.ChunkSize {
		end := offset + c.opts.ChunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := c.appendChunk(ctx, mediaID, segment, data[offset:end]); err != nil {
			return "", fmt.Errorf("media APPEND segment %d: %w", segment, err)
		}
	}

	finalize := url.Values{}
	finalize.Set("command", "FINALIZE")
	finalize.Set("media_id", mediaID)

	var finResp uploadResponse
	if err := c.postForm(ctx, finalize, &finResp); err != nil {
		return "", fmt.Errorf("media FINALIZE: %w", err)
	}

	if err := c.awaitProcessing(ctx, mediaID, finResp.ProcessingInfo); err != nil {
		return "", err
	}

	return mediaID, nil
}

func (c *client) awaitProcessing(ctx context.Context, mediaID string, info *processingInfo) error {
	for checks := 0; info != nil; checks++ {
		switch info.State {
		case "succeeded":
			return nil
		case "failed":
			msg := "unknown error"
			if info.Error != nil && info.Error.Message != "" {
				msg = info.Error.Message
			}
			return fmt.Errorf("%w: %s", ErrMediaProcessing, msg)
		}

		if checks >= c.opts.MaxStatusChecks {
			return fmt.Errorf("%w: still %s after %d checks", ErrMediaProcessing, info.State, checks)
		}

		wait := time.Duration(info.CheckAfterSecs) * time.Second
		if wait <= 0 {
			wait = time.Second
		}
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}

		status, err := c.mediaStatus(ctx, mediaID)
		if err != nil {
			return fmt.Errorf("media STATUS: %w", err)
		}
		info = status.ProcessingInfo
	}
	return nil
}

func (c *client) mediaStatus(ctx context.Context, mediaID string) (*uploadResponse, error) {
	q := url.Values{}
	q.Set("command", "STATUS")
	q.Set("media_id", mediaID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.UploadURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out uploadResponse
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) postForm(ctx context.Context, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.UploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, out)
}

func (c *client) appendChunk(ctx context.Context, mediaID string, segment int, chunk []byte) error {
	var body bytes.Buffer
	contentType, err := writeAppendForm(&body, mediaID, segment, chunk)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.UploadURL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.send(req, nil)
}

// writeAppendForm encodes one APPEND segment as multipart form data and
// returns the matching content type.
func writeAppendForm(dst io.Writer, mediaID string, segment int, chunk []byte) (string, error) {
	w := multipart.NewWriter(dst)
	fields := [][2]string{
		{"command", "APPEND"},
		{"media_id", mediaID},
		{"segment_index", strconv.Itoa(segment)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return "", err
		}
	}

	part, err := w.CreateFormFile("media", "blob")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(chunk); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return w.FormDataContentType(), nil
}

// send executes req and decodes a JSON body into out when out is non-nil.
func (c *client) send(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("twitter: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("twitter: unexpected status %d: %s", e.StatusCode, e.Body)
}
