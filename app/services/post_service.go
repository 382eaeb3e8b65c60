package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkpress/app/apperr"
	"inkpress/app/blobstore"
	"inkpress/app/logger"
	"inkpress/app/models"
	"inkpress/app/policy"
	"inkpress/app/repositories"
)

// PostInput holds the editable fields of a post as submitted.
type PostInput struct {
	Title       string
	Content     string
	Author      string
	Description string
	Category    string
	Tags        []string
}

// Image is an uploaded file. Its type is sniffed, never trusted.
type Image struct {
	Filename string
	Data     []byte
}

// ListParams are the raw listing options of a request.
type ListParams struct {
	Category string
	SortBy   string
	Order    string
	// Owner filters by owner id. "me" selects the acting subject.
	Owner string
}

// PostService handles business logic for blog posts
type PostService struct {
	posts         repositories.PostRepository
	blobs         blobstore.Store
	gate          policy.Authorizer
	log           *logger.Logger
	maxImageBytes int64
	now           func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(posts repositories.PostRepository, blobs blobstore.Store, gate policy.Authorizer, log *logger.Logger, maxImageBytes int64) *PostService {
	return &PostService{
		posts:         posts,
		blobs:         blobs,
		gate:          gate,
		log:           log.With("service", "PostService"),
		maxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

func (in PostInput) apply(post *models.Post) error {
	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return err
	}
	post.Title = in.Title
	post.Content = in.Content
	post.Author = in.Author
	post.Description = in.Description
	post.Category = category
	post.Tags = in.Tags
	post.Normalize()
	return nil
}

// checkImage validates an optional upload before anything is written.
func (s *PostService) checkImage(op string, image *Image) (string, error) {
	if image == nil {
		return "", nil
	}
	contentType, err := blobstore.CheckImage(image.Data, s.maxImageBytes)
	if err != nil {
		var imgErr *blobstore.ImageError
		if errors.As(err, &imgErr) {
			return "", &apperr.Error{Kind: apperr.Validation, Op: op, Msg: imgErr.Reason, Err: err}
		}
		return "", apperr.Wrap(apperr.Internal, op, err)
	}
	return contentType, nil
}

func (s *PostService) storeImage(ctx context.Context, op string, image *Image, contentType string) (string, error) {
	if image == nil {
		return "", nil
	}
	ref, err := s.blobs.Store(ctx, image.Data, contentType)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, op, err).AtStep("store-image")
	}
	return ref, nil
}

// discardImage rolls back a blob written for a mutation that did not commit.
func (s *PostService) discardImage(ref string) {
	if ref == "" {
		return
	}
	// the request context may already be gone
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.log.Warn("Failed to roll back stored image", "ref", ref, "error", err)
	}
}

// releaseImages deletes blobs no longer referenced by a committed post. A
// failure leaves the mutation in place and is reported as an inconsistency.
func (s *PostService) releaseImages(ctx context.Context, op string, refs ...string) error {
	var failed []string
	var lastErr error
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		err := s.blobs.Delete(ctx, ref)
		if err == nil || errors.Is(err, blobstore.ErrNotFound) {
			continue
		}
		s.log.Warn("Failed to release image", "ref", ref, "error", err)
		failed = append(failed, ref)
		lastErr = err
	}
	if len(failed) == 0 {
		return nil
	}
	return (&apperr.Error{
		Kind: apperr.Inconsistency,
		Op:   op,
		Msg:  "image blobs not released: " + strings.Join(failed, ", "),
		Err:  lastErr,
	}).AtStep("release-image")
}

// CreatePost validates and stores a new post owned by subject, if any.
func (s *PostService) CreatePost(ctx context.Context, in PostInput, image *Image, subject *models.Subject) (*models.Post, error) {
	const op = "posts.create"

	post := &models.Post{}
	if err := in.apply(post); err != nil {
		return nil, classify(op, err, msgPostNotFound)
	}
	post.BeforeCreate(s.now().UTC())
	if subject != nil {
		post.OwnerID = subject.ID
	}
	if err := post.Validate(); err != nil {
		return nil, classify(op, err, msgPostNotFound)
	}

	contentType, err := s.checkImage(op, image)
	if err != nil {
		return nil, err
	}
	ref, err := s.storeImage(ctx, op, image, contentType)
	if err != nil {
		return nil, err
	}
	post.SetImage(ref)

	if err := s.posts.Create(ctx, post); err != nil {
		s.discardImage(ref)
		return nil, classify(op, err, msgPostNotFound)
	}

	s.log.Info("Post created", "post_id", post.ID, "owner", post.OwnerID)
	return post, nil
}

// ListPosts returns the posts selected by params.
func (s *PostService) ListPosts(ctx context.Context, params ListParams, subject *models.Subject) ([]*models.Post, error) {
	const op = "posts.list"

	query, err := s.buildQuery(op, params, subject)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.List(ctx, query)
	if err != nil {
		return nil, classify(op, err, msgPostNotFound)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *PostService) buildQuery(op string, params ListParams, subject *models.Subject) (repositories.PostQuery, error) {
	var query repositories.PostQuery

	if c := strings.TrimSpace(params.Category); c != "" {
		category, err := models.ParseCategory(c)
		if err != nil {
			return query, classify(op, err, msgPostNotFound)
		}
		query.Category = category
	}

	switch repositories.SortField(params.SortBy) {
	case "", repositories.SortByCreatedAt:
		query.SortBy = repositories.SortByCreatedAt
	case repositories.SortByTitle, repositories.SortByAuthor:
		query.SortBy = repositories.SortField(params.SortBy)
	default:
		return query, apperr.New(apperr.Validation, op, "SortBy must be one of: createdAt, title, author")
	}

	switch strings.ToLower(params.Order) {
	case "", "desc":
		query.Descending = true
	case "asc":
	default:
		return query, apperr.New(apperr.Validation, op, "Order must be one of: asc, desc")
	}

	switch params.Owner {
	case "":
	case "me":
		if subject == nil {
			return query, apperr.New(apperr.Unauthorized, op, msgNotAuthed)
		}
		query.OwnerID = subject.ID
	default:
		query.OwnerID = params.Owner
	}

	return query, nil
}

// GetPost returns a post and counts the read as a view.
func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.IncrementViews(ctx, id)
	if err != nil {
		return nil, classify("posts.get", err, msgPostNotFound)
	}
	return post, nil
}

// UpdatePost replaces the editable fields of a post. A new image is stored
// before the record changes and removed again if the change does not commit;
// the replaced image is released afterwards.
func (s *PostService) UpdatePost(ctx context.Context, id string, in PostInput, image *Image, subject *models.Subject) (*models.Post, error) {
	const op = "posts.update"

	candidate := &models.Post{}
	if err := in.apply(candidate); err != nil {
		return nil, classify(op, err, msgPostNotFound)
	}
	if err := candidate.Validate(); err != nil {
		return nil, classify(op, err, msgPostNotFound)
	}
	contentType, err := s.checkImage(op, image)
	if err != nil {
		return nil, err
	}
	// fail fast before an upload for anonymous callers
	if subject == nil {
		return nil, apperr.New(apperr.Unauthorized, op, msgNotAuthed)
	}

	ref, err := s.storeImage(ctx, op, image, contentType)
	if err != nil {
		return nil, err
	}

	var previous string
	post, err := s.posts.Update(ctx, id, func(post *models.Post) error {
		previous = ""
		if err := authorize(s.gate, op, subject, post.OwnerID, policy.UpdatePost, "post"); err != nil {
			return err
		}
		post.Title = candidate.Title
		post.Content = candidate.Content
		post.Author = candidate.Author
		post.Description = candidate.Description
		post.Category = candidate.Category
		post.Tags = candidate.Tags
		post.UpdatedAt = s.now().UTC()
		if ref != "" {
			previous = post.SetImage(ref)
		}
		return nil
	})
	if err != nil {
		s.discardImage(ref)
		return nil, classify(op, err, msgPostNotFound)
	}

	if err := s.releaseImages(ctx, op, previous); err != nil {
		return post, err
	}
	return post, nil
}

// DeletePost removes a post with all of its comments and releases its images.
// The deleted post is returned.
func (s *PostService) DeletePost(ctx context.Context, id string, subject *models.Subject) (*models.Post, error) {
	const op = "posts.delete"

	post, err := s.posts.Delete(ctx, id, func(post *models.Post) error {
		return authorize(s.gate, op, subject, post.OwnerID, policy.DeletePost, "post")
	})
	if err != nil {
		return nil, classify(op, err, msgPostNotFound)
	}
	s.log.Info("Post deleted", "post_id", post.ID, "comments", len(post.Comments))

	if err := s.releaseImages(ctx, op, post.ImageRefs()...); err != nil {
		return post, err
	}
	return post, nil
}
