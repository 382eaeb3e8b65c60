package services

import (
	"context"
	"fmt"

	"inkpress/app/apperr"
	"inkpress/app/models"
	"inkpress/app/repositories"
)

// TargetKind names what a like applies to.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// EngagementService mutates like sets and share counters. Views are counted
// by PostService.GetPost.
type EngagementService struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
}

func NewEngagementService(posts repositories.PostRepository, comments repositories.CommentRepository) *EngagementService {
	return &EngagementService{posts: posts, comments: comments}
}

// ToggleLike adds the subject to the target's likers, or removes it when
// already present. It returns the updated post or comment.
func (s *EngagementService) ToggleLike(ctx context.Context, kind TargetKind, id string, subject *models.Subject) (any, error) {
	switch kind {
	case TargetPost:
		return s.TogglePostLike(ctx, id, subject)
	case TargetComment:
		return s.ToggleCommentLike(ctx, id, subject)
	default:
		return nil, apperr.New(apperr.Validation, "likes.toggle", fmt.Sprintf("Cannot like a %s", kind))
	}
}

func (s *EngagementService) TogglePostLike(ctx context.Context, id string, subject *models.Subject) (*models.Post, error) {
	const op = "posts.like"
	if subject == nil || subject.ID == "" {
		return nil, apperr.New(apperr.Unauthorized, op, "Must be logged in to like posts")
	}
	post, err := s.posts.ToggleLike(ctx, id, subject.ID)
	if err != nil {
		return nil, classify(op, err, msgPostNotFound)
	}
	return post, nil
}

func (s *EngagementService) ToggleCommentLike(ctx context.Context, id string, subject *models.Subject) (*models.Comment, error) {
	const op = "comments.like"
	if subject == nil || subject.ID == "" {
		return nil, apperr.New(apperr.Unauthorized, op, "Must be logged in to like comments")
	}
	comment, err := s.comments.ToggleLike(ctx, id, subject.ID)
	if err != nil {
		return nil, classify(op, err, msgCommentNotFound)
	}
	return comment, nil
}

// RecordShare counts a share. Shares are neither authenticated nor
// de-duplicated.
func (s *EngagementService) RecordShare(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.IncrementShares(ctx, postID)
	if err != nil {
		return nil, classify("posts.share", err, msgPostNotFound)
	}
	return post, nil
}
