package models

import (
	"errors"
	"strings"
	"time"
)

// Normalize trims the free-text fields.
func (c *Comment) Normalize() {
	c.Content = strings.TrimSpace(c.Content)
	c.Author = strings.TrimSpace(c.Author)
	if c.Likes == nil {
		c.Likes = LikeSet{}
	}
}

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	return validateStruct(c)
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate(now time.Time) {
	c.Normalize()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.IsApproved = true
	c.Likes = LikeSet{}
}

// SetPost sets the parent post and updates the PostID
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}
	c.PostID = post.ID
	return nil
}

// Validate checks the account fields.
func (u *User) Validate() error {
	return validateStruct(u)
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Subject returns the identity the user acts as.
func (u *User) Subject() *Subject {
	return &Subject{ID: u.ID, Name: u.Name}
}
