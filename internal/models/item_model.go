package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// MaxMedia is the largest number of attachments a single post can carry.
const MaxMedia = 4

type ScheduledItem struct {
	ID            string     `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	GroupID       string     `db:"group_id" json:"group_id"`
	AccountID     string     `db:"account_id" json:"account_id"`
	Text          string     `db:"text" json:"text"`
	Media         MediaList  `db:"media" json:"media"`
	ScheduledFor  time.Time  `db:"scheduled_for" json:"scheduled_for"`
	Status        ItemStatus `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	LastUpdatedAt time.Time  `db:"last_updated_at" json:"last_updated_at"`
	PostedAt      *time.Time `db:"posted_at" json:"posted_at,omitempty"`
	LastError     string     `db:"last_error" json:"last_error,omitempty"`
	// LockID identifies the publish attempt holding the item in processing.
	LockID string `db:"lock_id" json:"-"`
}

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

type MediaRef struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	Kind        MediaKind `json:"kind"`
}

// KindFromContentType infers the attachment kind. Anything that is not
// video/* is treated as an image.
func KindFromContentType(contentType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return MediaKindVideo
	}
	return MediaKindImage
}

// MediaList is stored as a JSONB array.
type MediaList []MediaRef

func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *MediaList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = MediaList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("media: unsupported column type")
	}

	var list MediaList
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*m = list
	return nil
}
