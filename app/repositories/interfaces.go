package repositories

import (
	"context"

	"inkpress/app/models"
)

// SortField names the attribute posts are ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByTitle     SortField = "title"
	SortByAuthor    SortField = "author"
)

// PostQuery selects and orders posts. Empty filter fields match everything.
type PostQuery struct {
	Category   models.Category
	OwnerID    string
	SortBy     SortField
	Descending bool
}

// PostRepository defines the interface for post data access. Callbacks run
// inside the storage transaction and may be invoked more than once.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, query PostQuery) ([]*models.Post, error)
	Update(ctx context.Context, id string, mutate func(post *models.Post) error) (*models.Post, error)
	IncrementViews(ctx context.Context, id string) (*models.Post, error)
	IncrementShares(ctx context.Context, id string) (*models.Post, error)
	ToggleLike(ctx context.Context, id, subjectID string) (*models.Post, error)
	// Delete removes the post together with all of its comments.
	Delete(ctx context.Context, id string, check func(post *models.Post) error) (*models.Post, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create stores the comment and links it to its post atomically.
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, approvedOnly bool) ([]*models.Comment, error)
	ListAll(ctx context.Context) ([]*models.CommentWithPost, error)
	Update(ctx context.Context, id string, mutate func(comment *models.Comment) error) (*models.Comment, error)
	ToggleLike(ctx context.Context, id, subjectID string) (*models.Comment, error)
	// Delete removes the comment and unlinks it from its post atomically.
	Delete(ctx context.Context, id string, check func(comment *models.Comment) error) (*models.Comment, error)
}

// UserRepository defines the interface for account data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
