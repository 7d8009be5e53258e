package models

import (
	"time"
)

type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:100"`
}

// Post is a group-buy listing. The three image slots are always populated
// after create/update; empty slots hold the configured placeholder URL.
// Gathered is not a column: listing queries fill it from the chat join count.
type Post struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Title      string    `json:"title" gorm:"not null;size:255"`
	Cost       int       `json:"cost" gorm:"not null"`
	People     int       `json:"people" gorm:"not null"`
	Local      string    `json:"local" gorm:"not null;size:255"`
	Bio        string    `json:"bio" gorm:"not null;type:text"`
	ImageURL1  string    `json:"image_url1" gorm:"not null;size:500"`
	ImageURL2  string    `json:"image_url2" gorm:"not null;size:500"`
	ImageURL3  string    `json:"image_url3" gorm:"not null;size:500"`
	Done       bool      `json:"done" gorm:"default:false"`
	CategoryID uint      `json:"category_id" gorm:"not null;index"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Gathered int `json:"gathered" gorm:"->;-:migration"`

	Category Category `json:"category" gorm:"foreignKey:CategoryID"`
	User     User     `json:"user" gorm:"foreignKey:UserID"`
}

// PostSummary is the listing/search projection of a post.
type PostSummary struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Cost         int       `json:"cost"`
	People       int       `json:"people"`
	Gathered     int       `json:"gathered"`
	Local        string    `json:"local"`
	ImageURL     string    `json:"image_url"`
	Done         bool      `json:"done"`
	CategoryID   uint      `json:"category_id"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// PostDetail adds the description, all image slots, owner info and tag names.
type PostDetail struct {
	PostSummary
	Bio           string   `json:"bio"`
	ImageURL2     string   `json:"image_url2"`
	ImageURL3     string   `json:"image_url3"`
	OwnerID       uint     `json:"owner_id"`
	OwnerNickname string   `json:"owner_nickname"`
	Tags          []string `json:"tags"`
}

// PagedPosts carries one page of summaries with pagination metadata.
type PagedPosts struct {
	Posts      []PostSummary `json:"posts"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	HasMore    bool          `json:"has_more"`
	TotalPages int           `json:"total_pages"`
}

func PostSummaryFrom(post Post) PostSummary {
	return PostSummary{
		ID:           post.ID,
		Title:        post.Title,
		Cost:         post.Cost,
		People:       post.People,
		Gathered:     post.Gathered,
		Local:        post.Local,
		ImageURL:     post.ImageURL1,
		Done:         post.Done,
		CategoryID:   post.CategoryID,
		CategoryName: post.Category.Name,
		CreatedAt:    post.CreatedAt,
	}
}

func PostDetailFrom(post Post, tags []Tag) PostDetail {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}

	return PostDetail{
		PostSummary:   PostSummaryFrom(post),
		Bio:           post.Bio,
		ImageURL2:     post.ImageURL2,
		ImageURL3:     post.ImageURL3,
		OwnerID:       post.UserID,
		OwnerNickname: post.User.Nickname,
		Tags:          names,
	}
}

func PagedPostsFrom(posts []Post, page, limit int, total int64) PagedPosts {
	summaries := make([]PostSummary, 0, len(posts))
	for _, post := range posts {
		summaries = append(summaries, PostSummaryFrom(post))
	}

	if limit < 1 {
		limit = 10
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return PagedPosts{
		Posts:      summaries,
		Page:       page,
		Limit:      limit,
		Total:      total,
		HasMore:    page < totalPages,
		TotalPages: totalPages,
	}
}
