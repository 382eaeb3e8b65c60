package models

import (
	"time"
)

// Category is the fixed set of post categories.
type Category string

const (
	CategoryTechnology  Category = "Technology"
	CategoryTravel      Category = "Travel"
	CategoryFood        Category = "Food"
	CategoryLifestyle   Category = "Lifestyle"
	CategoryMindfulness Category = "Mindfulness"
	CategoryOther       Category = "Other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryTechnology,
	CategoryTravel,
	CategoryFood,
	CategoryLifestyle,
	CategoryMindfulness,
	CategoryOther,
}

// Post represents a blog post. Comments is a derived cache of the ids of the
// comments whose PostID is this post, in creation order.
type Post struct {
	ID            string    `json:"id"`
	Seq           int       `json:"seq"`
	Title         string    `json:"title" validate:"required,min=1,max=200"`
	Content       string    `json:"content" validate:"required,min=10"`
	Author        string    `json:"author" validate:"required,max=100"`
	Description   string    `json:"description,omitempty" validate:"max=300"`
	Category      Category  `json:"category" validate:"required,oneof=Technology Travel Food Lifestyle Mindfulness Other"`
	Tags          []string  `json:"tags"`
	FeaturedImage string    `json:"featuredImage,omitempty"`
	Images        []string  `json:"images"`
	Likes         LikeSet   `json:"likes"`
	Views         int64     `json:"views" validate:"gte=0"`
	Shares        int64     `json:"shares" validate:"gte=0"`
	Comments      []string  `json:"comments"`
	OwnerID       string    `json:"authorRef,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Comment represents a comment on a blog post.
type Comment struct {
	ID         string    `json:"id"`
	Seq        int       `json:"seq"`
	PostID     string    `json:"blog" validate:"required"`
	Author     string    `json:"author" validate:"required,max=100"`
	Content    string    `json:"content" validate:"required,min=1,max=1000"`
	OwnerID    string    `json:"authorRef,omitempty"`
	Likes      LikeSet   `json:"likes"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CommentWithPost is a comment annotated with its parent post's title, used
// by the administrative listing.
type CommentWithPost struct {
	*Comment
	PostTitle string `json:"blogTitle"`
}

// User is a registered account. PasswordHash never leaves the process.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name" validate:"required,max=100"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash []byte    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Subject is the authenticated identity acting on a request.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is the public view of a user.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Envelope is the body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
}
