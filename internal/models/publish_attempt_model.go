package models

import "time"

type PublishAttempt struct {
	ID           int64     `db:"id" json:"id"`
	ItemID       string    `db:"item_id" json:"item_id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	Trigger      string    `db:"trigger" json:"trigger"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
