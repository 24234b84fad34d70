package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Notification - сохраненное уведомление пользователя (входящие).
type Notification struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	UserID      uuid.UUID      `db:"user_id" json:"user_id"`
	Type        string         `db:"type" json:"type"`
	Title       string         `db:"title" json:"title"`
	Message     string         `db:"message" json:"message"`
	RelatedType *string        `db:"related_type" json:"related_type,omitempty"`
	RelatedID   *uuid.UUID     `db:"related_id" json:"related_id,omitempty"`
	Data        types.JSONText `db:"data" json:"data,omitempty"`
	IsRead      bool           `db:"is_read" json:"is_read"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
