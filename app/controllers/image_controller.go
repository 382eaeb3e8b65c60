package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"inkpress/app/apperr"
	"inkpress/app/blobstore"
	"inkpress/app/logger"

	"github.com/gorilla/mux"
)

// ImageController serves uploaded images by the reference posts carry.
type ImageController struct {
	blobs blobstore.Store
	log   *logger.Logger
}

func NewImageController(blobs blobstore.Store, log *logger.Logger) *ImageController {
	return &ImageController{blobs: blobs, log: log.With("controller", "images")}
}

func (ic *ImageController) Show(w http.ResponseWriter, r *http.Request) {
	const op = "images.show"
	ref := mux.Vars(r)["ref"]

	data, contentType, err := ic.blobs.Get(r.Context(), ref)
	if errors.Is(err, blobstore.ErrNotFound) || errors.Is(err, blobstore.ErrInvalidRef) {
		sendError(w, r, ic.log, &apperr.Error{Kind: apperr.NotFound, Op: op, Msg: "Image not found", Err: err})
		return
	} else if err != nil {
		sendError(w, r, ic.log, apperr.Wrap(apperr.Internal, op, err))
		return
	}

	// references are never reused, so the content never changes
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
