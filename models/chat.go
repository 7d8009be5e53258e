package models

import (
	"time"
)

// Chat aggregates. The chat subsystem owns their behavior; this service only
// creates a room when a post is created and tears everything down when the
// post is deleted.

type ChatRoom struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatJoin struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;index;uniqueIndex:idx_chat_join"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_chat_join"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatPromise is the scheduled meetup for a post's chat room, at most one per post.
type ChatPromise struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PostID      uint      `json:"post_id" gorm:"uniqueIndex;not null"`
	PromiseTime time.Time `json:"promise_time"`
	Place       string    `json:"place" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
}
