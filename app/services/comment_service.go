package services

import (
	"context"
	"strings"
	"time"

	"inkpress/app/apperr"
	"inkpress/app/logger"
	"inkpress/app/models"
	"inkpress/app/policy"
	"inkpress/app/repositories"
)

// CommentInput holds a submitted comment.
type CommentInput struct {
	Content string
	Author  string
	PostID  string
}

// CommentService handles business logic for comments
type CommentService struct {
	comments repositories.CommentRepository
	gate     policy.Authorizer
	log      *logger.Logger
	now      func() time.Time
}

// NewCommentService creates a new CommentService
func NewCommentService(comments repositories.CommentRepository, gate policy.Authorizer, log *logger.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		gate:     gate,
		log:      log.With("service", "CommentService"),
		now:      time.Now,
	}
}

// CreateComment validates the comment and links it to an existing post.
// Anonymous comments are accepted and have no owner.
func (s *CommentService) CreateComment(ctx context.Context, in CommentInput, subject *models.Subject) (*models.Comment, error) {
	const op = "comments.create"

	comment := &models.Comment{
		Content: in.Content,
		Author:  in.Author,
		PostID:  in.PostID,
	}
	comment.BeforeCreate(s.now().UTC())
	if subject != nil {
		comment.OwnerID = subject.ID
	}
	if err := comment.Validate(); err != nil {
		return nil, classify(op, err, msgPostNotFound)
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, classify(op, err, msgPostNotFound)
	}
	s.log.Debug("Comment created", "comment_id", comment.ID, "post_id", comment.PostID)
	return comment, nil
}

// ListPostComments returns the approved comments of a post, newest first. An
// unknown post has no comments.
func (s *CommentService) ListPostComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments, err := s.comments.ListByPost(ctx, postID, true)
	if err != nil {
		return nil, classify("comments.list", err, msgPostNotFound)
	}
	return comments, nil
}

// ListAllComments returns every comment with its post title, newest first.
func (s *CommentService) ListAllComments(ctx context.Context) ([]*models.CommentWithPost, error) {
	comments, err := s.comments.ListAll(ctx)
	if err != nil {
		return nil, classify("comments.list-all", err, msgCommentNotFound)
	}
	return comments, nil
}

// UpdateComment replaces the content of a comment owned by subject.
func (s *CommentService) UpdateComment(ctx context.Context, id, content string, subject *models.Subject) (*models.Comment, error) {
	const op = "comments.update"

	if strings.TrimSpace(content) == "" {
		return nil, apperr.New(apperr.Validation, op, "Content is required")
	}

	comment, err := s.comments.Update(ctx, id, func(comment *models.Comment) error {
		if err := authorize(s.gate, op, subject, comment.OwnerID, policy.UpdateComment, "comment"); err != nil {
			return err
		}
		comment.Content = content
		comment.Normalize()
		if err := comment.Validate(); err != nil {
			return err
		}
		comment.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, classify(op, err, msgCommentNotFound)
	}
	return comment, nil
}

// DeleteComment removes a comment owned by subject and unlinks it from its post.
func (s *CommentService) DeleteComment(ctx context.Context, id string, subject *models.Subject) (*models.Comment, error) {
	const op = "comments.delete"

	comment, err := s.comments.Delete(ctx, id, func(comment *models.Comment) error {
		return authorize(s.gate, op, subject, comment.OwnerID, policy.DeleteComment, "comment")
	})
	if err != nil {
		return nil, classify(op, err, msgCommentNotFound)
	}
	s.log.Debug("Comment deleted", "comment_id", comment.ID, "post_id", comment.PostID)
	return comment, nil
}
