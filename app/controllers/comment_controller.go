package controllers

import (
	"net/http"

	"inkpress/app/logger"
	"inkpress/app/middleware"
	"inkpress/app/models"
	"inkpress/app/services"

	"github.com/gorilla/mux"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	comments   *services.CommentService
	engagement *services.EngagementService
	log        *logger.Logger
}

// NewCommentController creates a new CommentController
func NewCommentController(comments *services.CommentService, engagement *services.EngagementService, log *logger.Logger) *CommentController {
	return &CommentController{
		comments:   comments,
		engagement: engagement,
		log:        log.With("controller", "comments"),
	}
}

type commentRequest struct {
	Content string `json:"content"`
	Author  string `json:"author"`
	PostID  string `json:"blog"`
}

// Create handles creating a new comment. Authentication is optional.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, r, cc.log, err)
		return
	}

	comment, err := cc.comments.CreateComment(r.Context(), services.CommentInput(req), middleware.SubjectFrom(r.Context()))
	if err != nil {
		sendError(w, r, cc.log, err)
		return
	}
	sendData(w, http.StatusCreated, comment)
}

// Index lists every comment with its post title
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	comments, err := cc.comments.ListAllComments(r.Context())
	if err != nil {
		sendError(w, r, cc.log, err)
		return
	}
	sendList(w, comments)
}

// ByPost lists the approved comments of the post named by the postId variable
func (cc *CommentController) ByPost(w http.ResponseWriter, r *http.Request) {
	comments, err := cc.comments.ListPostComments(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		sendError(w, r, cc.log, err)
		return
	}
	sendList(w, comments)
}

// Update handles replacing the content of a comment
func (cc *CommentController) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, r, cc.log, err)
		return
	}

	comment, err := cc.comments.UpdateComment(r.Context(), mux.Vars(r)["id"], req.Content, middleware.SubjectFrom(r.Context()))
	if err != nil {
		sendError(w, r, cc.log, err)
		return
	}
	sendData(w, http.StatusOK, comment)
}

// Delete handles deleting a comment
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	comment, err := cc.comments.DeleteComment(r.Context(), mux.Vars(r)["id"], middleware.SubjectFrom(r.Context()))
	if err != nil {
		sendError(w, r, cc.log, err)
		return
	}
	sendJSON(w, http.StatusOK, models.Envelope{Success: true, Message: "Comment deleted successfully", Data: comment})
}

// Like toggles the acting subject's like on a comment
func (cc *CommentController) Like(w http.ResponseWriter, r *http.Request) {
	comment, err := cc.engagement.ToggleCommentLike(r.Context(), mux.Vars(r)["id"], middleware.SubjectFrom(r.Context()))
	if err != nil {
		sendError(w, r, cc.log, err)
		return
	}
	sendData(w, http.StatusOK, comment)
}
