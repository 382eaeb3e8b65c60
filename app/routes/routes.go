package routes

import (
	"encoding/json"
	"net/http"

	"inkpress/app/controllers"
	"inkpress/app/logger"
	"inkpress/app/middleware"
	"inkpress/app/models"

	"github.com/gorilla/mux"
)

// Deps are the collaborators the router wires into its controllers.
type Deps struct {
	Posts    *controllers.PostController
	Comments *controllers.CommentController
	Auth     *controllers.AuthController
	Images   *controllers.ImageController
	Verifier middleware.TokenVerifier
	Log      *logger.Logger
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.Recoverer(d.Log))

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, models.Envelope{Error: "Not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusMethodNotAllowed, models.Envelope{Error: "Method not allowed"})
	})

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, models.Envelope{Success: true})
	}).Methods("GET")

	// API routes
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.Authenticate(d.Verifier, d.Log))

	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}

	// Auth endpoints
	api.HandleFunc("/auth/register", d.Auth.Register).Methods("POST")
	api.HandleFunc("/auth/login", d.Auth.Login).Methods("POST")
	api.Handle("/auth/me", protected(d.Auth.Me)).Methods("GET")

	// Posts API endpoints, also reachable under the older /blogs prefix
	for _, prefix := range []string{"/posts", "/blogs"} {
		posts := api.PathPrefix(prefix).Subrouter()
		posts.HandleFunc("", d.Posts.Index).Methods("GET")
		posts.Handle("", protected(d.Posts.Create)).Methods("POST")
		posts.HandleFunc("/{id}", d.Posts.Show).Methods("GET")
		posts.Handle("/{id}", protected(d.Posts.Update)).Methods("PUT")
		posts.Handle("/{id}", protected(d.Posts.Delete)).Methods("DELETE")
		posts.Handle("/{id}/like", protected(d.Posts.Like)).Methods("POST")
		posts.HandleFunc("/{id}/share", d.Posts.Share).Methods("POST")
		posts.HandleFunc("/{id}/comments", d.Posts.Comments).Methods("GET")
	}

	// Uploaded images
	api.HandleFunc("/images/{ref:.+}", d.Images.Show).Methods("GET")

	// Comments API endpoints
	comments := api.PathPrefix("/comments").Subrouter()
	comments.HandleFunc("", d.Comments.Create).Methods("POST")
	comments.HandleFunc("", d.Comments.Index).Methods("GET")
	comments.HandleFunc("/blog/{postId}", d.Comments.ByPost).Methods("GET")
	comments.Handle("/{id}", protected(d.Comments.Update)).Methods("PUT")
	comments.Handle("/{id}", protected(d.Comments.Delete)).Methods("DELETE")
	comments.Handle("/{id}/like", protected(d.Comments.Like)).Methods("POST")

	return router
}

func writeEnvelope(w http.ResponseWriter, status int, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
