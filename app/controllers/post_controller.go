package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"inkpress/app/apperr"
	"inkpress/app/blobstore"
	"inkpress/app/logger"
	"inkpress/app/middleware"
	"inkpress/app/models"
	"inkpress/app/services"

	"github.com/gorilla/mux"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	posts         *services.PostService
	comments      *services.CommentService
	engagement    *services.EngagementService
	log           *logger.Logger
	maxImageBytes int64
}

// NewPostController creates a new PostController
func NewPostController(posts *services.PostService, comments *services.CommentService, engagement *services.EngagementService, log *logger.Logger, maxImageBytes int64) *PostController {
	if maxImageBytes <= 0 {
		maxImageBytes = blobstore.DefaultMaxImageBytes
	}
	return &PostController{
		posts:         posts,
		comments:      comments,
		engagement:    engagement,
		log:           log.With("controller", "posts"),
		maxImageBytes: maxImageBytes,
	}
}

// postRequest is the JSON form of a post submission.
type postRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// Index handles listing posts
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.ListParams{
		Category: q.Get("category"),
		SortBy:   q.Get("sortBy"),
		Order:    q.Get("order"),
		Owner:    q.Get("owner"),
	}

	posts, err := pc.posts.ListPosts(r.Context(), params, middleware.SubjectFrom(r.Context()))
	if err != nil {
		sendError(w, r, pc.log, err)
		return
	}
	sendList(w, posts)
}

// Show handles displaying a single post. Every successful read counts as a view.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, err := pc.posts.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendError(w, r, pc.log, err)
		return
	}
	sendData(w, http.StatusOK, post)
}

// Create handles creating a new post from JSON or a multipart form.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	in, image, err := pc.parsePost(w, r)
	if err != nil {
		sendError(w, r, pc.log, err)
		return
	}

	post, err := pc.posts.CreatePost(r.Context(), in, image, middleware.SubjectFrom(r.Context()))
	if err != nil {
		sendError(w, r, pc.log, err)
		return
	}
	sendData(w, http.StatusCreated, post)
}

// Update handles replacing the editable fields of a post
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	in, image, err := pc.parsePost(w, r)
	if err != nil {
		sendError(w, r, pc.log, err)
		return
	}

	post, err := pc.posts.UpdatePost(r.Context(), mux.Vars(r)["id"], in, image, middleware.SubjectFrom(r.Context()))
	if !committed(r, pc.log, err) {
		sendError(w, r, pc.log, err)
		return
	}
	sendData(w, http.StatusOK, post)
}

// Delete handles deleting a post with its comments
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	post, err := pc.posts.DeletePost(r.Context(), mux.Vars(r)["id"], middleware.SubjectFrom(r.Context()))
	if !committed(r, pc.log, err) {
		sendError(w, r, pc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, models.Envelope{Success: true, Message: "Blog post deleted successfully", Data: post})
}

// Like toggles the acting subject's like on a post
func (pc *PostController) Like(w http.ResponseWriter, r *http.Request) {
	post, err := pc.engagement.TogglePostLike(r.Context(), mux.Vars(r)["id"], middleware.SubjectFrom(r.Context()))
	if err != nil {
		sendError(w, r, pc.log, err)
		return
	}
	sendData(w, http.StatusOK, post)
}

// Share counts a share of a post
func (pc *PostController) Share(w http.ResponseWriter, r *http.Request) {
	post, err := pc.engagement.RecordShare(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendError(w, r, pc.log, err)
		return
	}
	sendData(w, http.StatusOK, post)
}

// Comments lists the approved comments of a post, newest first
func (pc *PostController) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := pc.comments.ListPostComments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendError(w, r, pc.log, err)
		return
	}
	sendList(w, comments)
}

// parsePost reads a post submission. Multipart forms may carry one image
// under "image" or "featuredImage"; JSON bodies never do.
func (pc *PostController) parsePost(w http.ResponseWriter, r *http.Request) (services.PostInput, *services.Image, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		return pc.parsePostForm(w, r, mediaType)
	default:
		var req postRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return services.PostInput{}, nil, err
		}
		return services.PostInput(req), nil, nil
	}
}

func (pc *PostController) parsePostForm(w http.ResponseWriter, r *http.Request, mediaType string) (services.PostInput, *services.Image, error) {
	const op = "posts.parse-form"

	// room for the image plus the text fields
	r.Body = http.MaxBytesReader(w, r.Body, pc.maxImageBytes+maxJSONBody)
	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxJSONBody)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return services.PostInput{}, nil, apperr.New(apperr.Validation, op, fmt.Sprintf("Image cannot exceed %d bytes", pc.maxImageBytes))
		}
		return services.PostInput{}, nil, &apperr.Error{Kind: apperr.Validation, Op: op, Msg: "Invalid form body", Err: err}
	}

	in := services.PostInput{
		Title:       r.FormValue("title"),
		Content:     r.FormValue("content"),
		Author:      r.FormValue("author"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Tags:        splitTags(r.Form["tags"]),
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File) == 0 {
		return in, nil, nil
	}
	var headers []*multipart.FileHeader
	for field, files := range r.MultipartForm.File {
		if !isImageField(field) {
			return in, nil, apperr.New(apperr.Validation, op, fmt.Sprintf("Unexpected file field %q", field))
		}
		headers = append(headers, files...)
	}
	switch len(headers) {
	case 0:
		return in, nil, nil
	case 1:
	default:
		return in, nil, apperr.New(apperr.Validation, op, "Only one image may be uploaded")
	}
	header := headers[0]
	file, err := header.Open()
	if err != nil {
		return in, nil, &apperr.Error{Kind: apperr.Validation, Op: op, Msg: "Invalid image upload", Err: err}
	}
	defer file.Close()

	// read one byte past the limit so oversized files are detected
	data, err := io.ReadAll(io.LimitReader(file, pc.maxImageBytes+1))
	if err != nil {
		return in, nil, apperr.Wrap(apperr.Internal, op, err)
	}
	return in, &services.Image{Filename: header.Filename, Data: data}, nil
}

// imageFields are the multipart fields an uploaded image may arrive under.
var imageFields = []string{"image", "featuredImage"}

func isImageField(field string) bool {
	return slices.Contains(imageFields, field)
}

// splitTags accepts repeated fields as well as comma separated lists.
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		tags = append(tags, strings.Split(v, ",")...)
	}
	return tags
}
