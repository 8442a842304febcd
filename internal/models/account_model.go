package models

import (
	"time"
)

type Group struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Account holds the provider credentials of one posting identity. The four
// secrets are stored encrypted and never serialized.
type Account struct {
	ID           string    `db:"id" json:"id"`
	GroupID      string    `db:"group_id" json:"group_id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	AppKey       string    `db:"app_key" json:"-"`
	AppSecret    string    `db:"app_secret" json:"-"`
	AccessToken  string    `db:"access_token" json:"-"`
	AccessSecret string    `db:"access_secret" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Credential is the decrypted key/secret/token/secret tuple of an account.
type Credential struct {
	UserID       int64
	AppKey       string
	AppSecret    string
	AccessToken  string
	AccessSecret string
}

func (c *Credential) Complete() bool {
	return c != nil && c.AppKey != "" && c.AppSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// LegacyCredential is the flat per-user record written before groups and
// accounts existed.
type LegacyCredential struct {
	UserID       int64     `db:"user_id" json:"user_id"`
	ScreenName   string    `db:"screen_name" json:"screen_name"`
	AccessToken  string    `db:"access_token" json:"-"`
	AccessSecret string    `db:"access_secret" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
