package models

// Tag names are canonical: demand-created on first use, never deleted.
type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:100"`
}

// PostTag links a post to a tag. A post's tag set is fully replaced on
// update; the composite unique index keeps the set free of duplicates.
type PostTag struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	PostID uint `json:"post_id" gorm:"not null;index;uniqueIndex:idx_post_tag"`
	TagID  uint `json:"tag_id" gorm:"not null;uniqueIndex:idx_post_tag"`

	Post Post `json:"-" gorm:"foreignKey:PostID"`
	Tag  Tag  `json:"-" gorm:"foreignKey:TagID"`
}
