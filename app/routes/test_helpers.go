package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkpress/app/auth"
	"inkpress/app/blobstore"
	"inkpress/app/controllers"
	"inkpress/app/logger"
	"inkpress/app/policy"
	"inkpress/app/repositories"
	"inkpress/app/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testApp struct {
	router *mux.Router
	repo   *repositories.Repository
	blobs  *blobstore.Memory
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	repo, err := repositories.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	log := logger.Nop()
	blobs := blobstore.NewMemory()
	provider, err := auth.NewProvider(auth.Config{Secret: "test-secret", BcryptCost: bcrypt.MinCost}, repo.Users)
	require.NoError(t, err)

	gate := policy.OwnerPolicy{}
	postService := services.NewPostService(repo.Posts, blobs, gate, log, blobstore.DefaultMaxImageBytes)
	commentService := services.NewCommentService(repo.Comments, gate, log)
	engagement := services.NewEngagementService(repo.Posts, repo.Comments)
	accounts := services.NewAccountService(provider, repo.Users, log)

	router := SetupRoutes(Deps{
		Posts:    controllers.NewPostController(postService, commentService, engagement, log, blobstore.DefaultMaxImageBytes),
		Comments: controllers.NewCommentController(commentService, engagement, log),
		Auth:     controllers.NewAuthController(accounts, log),
		Images:   controllers.NewImageController(blobs, log),
		Verifier: provider,
		Log:      log,
	})
	return &testApp{router: router, repo: repo, blobs: blobs}
}

// response is the decoded envelope with the data left raw.
type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
}

type result struct {
	Code int
	Body response
	Raw  *httptest.ResponseRecorder
}

func (r result) into(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body.Data, v), string(r.Body.Data))
}

func (a *testApp) do(t *testing.T, method, path, token string, body io.Reader, contentType string) result {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	res := result{Code: w.Code, Raw: w}
	if w.Header().Get("Content-Type") == "application/json" && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res.Body), w.Body.String())
	}
	return res
}

func (a *testApp) json(t *testing.T, method, path, token string, payload interface{}) result {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return a.do(t, method, path, token, body, "application/json")
}

// register creates an account and returns its id and token.
func (a *testApp) register(t *testing.T, name, email string) (string, string) {
	t.Helper()
	res := a.json(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password1",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.Error)
	var session services.Session
	res.into(t, &session)
	return session.User.ID, session.Token
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (io.Reader, string) {
	t.Helper()
	if image == nil {
		return multipartFiles(t, fields, nil)
	}
	return multipartFiles(t, fields, map[string][]byte{"image": image})
}

// multipartFiles writes each file under its own form field.
func multipartFiles(t *testing.T, fields map[string]string, files map[string][]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

var pngData = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
