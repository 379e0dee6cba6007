package models

import "time"

// User represents a signed-in user. ID is the Telegram user id.
type User struct {
	ID               int64     `db:"id" json:"id"`
	TelegramUsername string    `db:"telegram_username" json:"telegramUsername"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}
