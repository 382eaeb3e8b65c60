package models

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Normalize trims the free-text fields and fills defaults.
func (p *Post) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Author = strings.TrimSpace(p.Author)
	p.Description = strings.TrimSpace(p.Description)
	if p.Category == "" {
		p.Category = CategoryOther
	}
	p.Tags = NormalizeTags(p.Tags)
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Comments == nil {
		p.Comments = []string{}
	}
	if p.Likes == nil {
		p.Likes = LikeSet{}
	}
}

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	return validateStruct(p)
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate(now time.Time) {
	p.Normalize()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Views = 0
	p.Shares = 0
	p.Likes = LikeSet{}
	p.Comments = []string{}
}

// AddCommentID appends a comment id to the derived comment list.
func (p *Post) AddCommentID(id string) error {
	if id == "" {
		return errors.New("comment id cannot be empty")
	}
	if slices.Contains(p.Comments, id) {
		return nil
	}
	p.Comments = append(p.Comments, id)
	return nil
}

// RemoveCommentID pulls a comment id out of the derived comment list.
func (p *Post) RemoveCommentID(id string) error {
	i := slices.Index(p.Comments, id)
	if i < 0 {
		return errors.New("comment not found")
	}
	p.Comments = slices.Delete(p.Comments, i, i+1)
	return nil
}

// SetImage makes ref the featured image and returns the reference it replaced.
func (p *Post) SetImage(ref string) (previous string) {
	previous = p.FeaturedImage
	if previous != "" {
		if i := slices.Index(p.Images, previous); i >= 0 {
			p.Images = slices.Delete(p.Images, i, i+1)
		}
	}
	p.FeaturedImage = ref
	if ref != "" && !slices.Contains(p.Images, ref) {
		p.Images = append(p.Images, ref)
	}
	return previous
}

// ImageRefs returns every blob reference held by the post.
func (p *Post) ImageRefs() []string {
	refs := slices.Clone(p.Images)
	if p.FeaturedImage != "" && !slices.Contains(refs, p.FeaturedImage) {
		refs = append(refs, p.FeaturedImage)
	}
	return refs
}
