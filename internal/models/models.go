package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookCondition string

const (
	BookConditionNew  BookCondition = "New"
	BookConditionGood BookCondition = "Good"
	BookConditionFair BookCondition = "Fair"
	BookConditionPoor BookCondition = "Poor"
)

func (c BookCondition) Valid() bool {
	switch c {
	case BookConditionNew, BookConditionGood, BookConditionFair, BookConditionPoor:
		return true
	}
	return false
}

type BookStatus string

const (
	BookStatusAvailable BookStatus = "Available"
	BookStatusSwapped   BookStatus = "Swapped"
)

func (s BookStatus) Valid() bool {
	switch s {
	case BookStatusAvailable, BookStatusSwapped:
		return true
	}
	return false
}

// User is one community member. Exactly one row exists per external-auth
// identity (AuthID); the row is created lazily on the member's first visit.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthID     string    `gorm:"size:255;not null;uniqueIndex" json:"auth_id"`
	FullName   string    `gorm:"size:255;not null" json:"full_name"`
	Email      string    `gorm:"size:255;not null" json:"email"`
	AvatarURL  *string   `json:"avatar_url"`
	BooksCount int       `gorm:"not null;default:0" json:"books_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Book is one physical book owned by one member. OwnerID holds the owning
// member's external-auth id and is always set server-side, never from input.
// Pointer fields distinguish "not set" from "empty string".
type Book struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string        `gorm:"size:255;not null" json:"title"`
	Author      string        `gorm:"size:255;not null" json:"author"`
	Description string        `json:"description"`
	Condition   BookCondition `gorm:"type:book_condition;not null" json:"condition"`
	ISBN        *string       `gorm:"size:32" json:"isbn"`
	OpenLibID   *string       `gorm:"size:255" json:"open_lib_id"`
	ImageURL    *string       `json:"image_url"`
	Status      BookStatus    `gorm:"type:book_status;not null;index" json:"status"`
	OwnerID     string        `gorm:"size:255;not null;index" json:"owner_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
