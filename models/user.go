package models

import (
	"time"
)

// Local is a neighborhood unit. Users reference up to two of them; a post is
// visible to a viewer when the poster's and viewer's locals overlap.
type Local struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:100"`
}

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Phone     string    `json:"phone" gorm:"uniqueIndex;not null;size:20"`
	Password  string    `json:"-" gorm:"not null;size:255"`
	Nickname  string    `json:"nickname" gorm:"size:50"`
	Role      string    `json:"role" gorm:"not null;default:'ROLE_USER';size:20"`
	Local1ID  *uint     `json:"local1_id"`
	Local2ID  *uint     `json:"local2_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Local1 *Local `json:"local1,omitempty" gorm:"foreignKey:Local1ID"`
	Local2 *Local `json:"local2,omitempty" gorm:"foreignKey:Local2ID"`
}

// LocalIDs returns the user's neighborhood scope: zero, one or two ids.
// An empty result means listings for this user are unscoped.
func (u *User) LocalIDs() []uint {
	ids := make([]uint, 0, 2)
	if u.Local1ID != nil {
		ids = append(ids, *u.Local1ID)
	}
	if u.Local2ID != nil {
		ids = append(ids, *u.Local2ID)
	}
	return ids
}
