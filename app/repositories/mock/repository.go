// Package mock wraps real repositories so tests can inject storage failures
// into selected operations.
package mock

import (
	"context"
	"sync"

	"inkpress/app/models"
	"inkpress/app/repositories"
)

// Faults maps operation names ("Create", "List", ...) to the error they
// should fail with.
type Faults struct {
	mu   sync.RWMutex
	errs map[string]error
}

// Fail makes op return err until Reset is called.
func (f *Faults) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	f.errs[op] = err
}

func (f *Faults) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = nil
}

func (f *Faults) err(op string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errs[op]
}

// PostRepository delegates to the wrapped repository unless a fault is set.
type PostRepository struct {
	repositories.PostRepository
	Faults
}

func NewPostRepository(inner repositories.PostRepository) *PostRepository {
	return &PostRepository{PostRepository: inner}
}

func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := m.err("Create"); err != nil {
		return err
	}
	return m.PostRepository.Create(ctx, post)
}

func (m *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if err := m.err("GetByID"); err != nil {
		return nil, err
	}
	return m.PostRepository.GetByID(ctx, id)
}

func (m *PostRepository) List(ctx context.Context, query repositories.PostQuery) ([]*models.Post, error) {
	if err := m.err("List"); err != nil {
		return nil, err
	}
	return m.PostRepository.List(ctx, query)
}

func (m *PostRepository) Update(ctx context.Context, id string, mutate func(*models.Post) error) (*models.Post, error) {
	if err := m.err("Update"); err != nil {
		return nil, err
	}
	return m.PostRepository.Update(ctx, id, mutate)
}

func (m *PostRepository) IncrementViews(ctx context.Context, id string) (*models.Post, error) {
	if err := m.err("IncrementViews"); err != nil {
		return nil, err
	}
	return m.PostRepository.IncrementViews(ctx, id)
}

func (m *PostRepository) IncrementShares(ctx context.Context, id string) (*models.Post, error) {
	if err := m.err("IncrementShares"); err != nil {
		return nil, err
	}
	return m.PostRepository.IncrementShares(ctx, id)
}

func (m *PostRepository) ToggleLike(ctx context.Context, id, subjectID string) (*models.Post, error) {
	if err := m.err("ToggleLike"); err != nil {
		return nil, err
	}
	return m.PostRepository.ToggleLike(ctx, id, subjectID)
}

func (m *PostRepository) Delete(ctx context.Context, id string, check func(*models.Post) error) (*models.Post, error) {
	if err := m.err("Delete"); err != nil {
		return nil, err
	}
	return m.PostRepository.Delete(ctx, id, check)
}

// CommentRepository delegates to the wrapped repository unless a fault is set.
type CommentRepository struct {
	repositories.CommentRepository
	Faults
}

func NewCommentRepository(inner repositories.CommentRepository) *CommentRepository {
	return &CommentRepository{CommentRepository: inner}
}

func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := m.err("Create"); err != nil {
		return err
	}
	return m.CommentRepository.Create(ctx, comment)
}

func (m *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if err := m.err("GetByID"); err != nil {
		return nil, err
	}
	return m.CommentRepository.GetByID(ctx, id)
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID string, approvedOnly bool) ([]*models.Comment, error) {
	if err := m.err("ListByPost"); err != nil {
		return nil, err
	}
	return m.CommentRepository.ListByPost(ctx, postID, approvedOnly)
}

func (m *CommentRepository) ListAll(ctx context.Context) ([]*models.CommentWithPost, error) {
	if err := m.err("ListAll"); err != nil {
		return nil, err
	}
	return m.CommentRepository.ListAll(ctx)
}

func (m *CommentRepository) Update(ctx context.Context, id string, mutate func(*models.Comment) error) (*models.Comment, error) {
	if err := m.err("Update"); err != nil {
		return nil, err
	}
	return m.CommentRepository.Update(ctx, id, mutate)
}

func (m *CommentRepository) ToggleLike(ctx context.Context, id, subjectID string) (*models.Comment, error) {
	if err := m.err("ToggleLike"); err != nil {
		return nil, err
	}
	return m.CommentRepository.ToggleLike(ctx, id, subjectID)
}

func (m *CommentRepository) Delete(ctx context.Context, id string, check func(*models.Comment) error) (*models.Comment, error) {
	if err := m.err("Delete"); err != nil {
		return nil, err
	}
	return m.CommentRepository.Delete(ctx, id, check)
}

// UserRepository delegates to the wrapped repository unless a fault is set.
type UserRepository struct {
	repositories.UserRepository
	Faults
}

func NewUserRepository(inner repositories.UserRepository) *UserRepository {
	return &UserRepository{UserRepository: inner}
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := m.err("Create"); err != nil {
		return err
	}
	return m.UserRepository.Create(ctx, user)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := m.err("GetByEmail"); err != nil {
		return nil, err
	}
	return m.UserRepository.GetByEmail(ctx, email)
}
