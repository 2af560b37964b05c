// Package router exposes the social service over HTTP.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Gravitalia/socialbook/model"
	"github.com/Gravitalia/socialbook/relation"
	"github.com/Gravitalia/socialbook/social"
)

// ME designates the authenticated account in user routes
const ME = "@me"

// MaxBodySize bounds request bodies, images included
const MaxBodySize = 10 << 20

// Every possible error list
const (
	ErrorInternalServerError = "Internal server error"
	ErrorInvalidBody         = "Invalid body"
	ErrorInvalidCredentials  = "Invalid credentials"
	ErrorInvalidPostAccess   = "No access to this post"
	ErrorInvalidQuery        = "Invalid query"
	ErrorInvalidRelation     = "Invalid relation"
	ErrorInvalidToken        = "Invalid token"
	ErrorInvalidUser         = "Invalid user"
	ErrorNotFound            = "Not found"
	ErrorUnableReadBody      = "Unable to read body"
)

// Every OK message reponse
const (
	OkDeletedPost = "Deleted post"
	OkDeletedUser = "Deleted user"
	OkSuspended   = "Suspended"
	OkReinstated  = "Reinstated"
)

// TokenChecker returns the account id carried by a valid token
type TokenChecker interface {
	CheckToken(token string) (string, error)
}

// Options groups the dependencies of a Router
type Options struct {
	Social    *social.Service
	Relations *relation.Service
	Tokens    TokenChecker
	// AdminToken protects moderation routes. Empty disables them.
	AdminToken string
	// Media serves stored blobs under /media/ when set.
	Media  http.Handler
	Logger *slog.Logger
}

// Router holds the handlers of every route
type Router struct {
	social     *social.Service
	relations  *relation.Service
	tokens     TokenChecker
	adminToken string
	media      http.Handler
	logger     *slog.Logger
}

func New(opts Options) *Router {
	return &Router{
		social:     opts.Social,
		relations:  opts.Relations,
		tokens:     opts.Tokens,
		adminToken: opts.AdminToken,
		media:      opts.Media,
		logger:     opts.Logger,
	}
}

// Handler registers every route on a new mux
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", Index)

	mux.HandleFunc("POST /v1/signup", rt.Signup)
	mux.HandleFunc("POST /v1/login", rt.Login)

	mux.HandleFunc("GET /v1/users/{username}", rt.Users)
	mux.HandleFunc("PATCH /v1/users/@me", rt.UpdateMe)
	mux.HandleFunc("DELETE /v1/users/@me", rt.DeleteMe)
	mux.HandleFunc("GET /v1/search", rt.Search)

	mux.HandleFunc("GET /v1/feed", rt.Feed)
	mux.HandleFunc("GET /v1/suggestions", rt.Suggestions)

	mux.HandleFunc("POST /v1/relation/{type}", rt.Relation)

	mux.HandleFunc("GET /v1/posts", rt.ListPosts)
	mux.HandleFunc("POST /v1/posts", rt.NewPost)
	mux.HandleFunc("GET /v1/posts/{id}", rt.GetPost)
	mux.HandleFunc("PATCH /v1/posts/{id}", rt.UpdatePost)
	mux.HandleFunc("DELETE /v1/posts/{id}", rt.DeletePost)

	mux.HandleFunc("POST /v1/admin/suspend", rt.Suspend)

	if rt.media != nil {
		mux.Handle("GET /media/", http.StripPrefix("/media/", rt.media))
	}

	return mux
}

func Index(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "OK")
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, model.RequestError{
		Error:   true,
		Message: message,
	})
}

// fail maps a service error to its status code
func (rt *Router) fail(w http.ResponseWriter, req *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		respond(w, http.StatusBadRequest, model.RequestError{
			Error:   true,
			Message: ErrorInvalidBody,
			Fields:  verr.Fields,
		})
	case errors.Is(err, model.ErrSelfFollow):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrorNotFound)
	case errors.Is(err, model.ErrForbidden):
		respondError(w, http.StatusForbidden, ErrorInvalidPostAccess)
	case errors.Is(err, social.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, ErrorInvalidCredentials)
	default:
		rt.logger.Error("request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err)
		respondError(w, http.StatusInternalServerError, ErrorInternalServerError)
	}
}

// authenticate returns the account id of the request's token.
// On failure the response is already written.
func (rt *Router) authenticate(w http.ResponseWriter, req *http.Request) (string, bool) {
	token := strings.TrimSpace(strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		respondError(w, http.StatusUnauthorized, ErrorInvalidToken)
		return "", false
	}

	id, err := rt.tokens.CheckToken(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, ErrorInvalidToken)
		return "", false
	}

	return id, true
}

// viewer returns the account id when a valid token is present, "" otherwise
func (rt *Router) viewer(req *http.Request) string {
	token := strings.TrimSpace(strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		return ""
	}
	id, err := rt.tokens.CheckToken(token)
	if err != nil {
		return ""
	}
	return id
}

// decode reads a JSON body into dst. On failure the response is already written.
func decode(w http.ResponseWriter, req *http.Request, dst any) bool {
	defer req.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrorUnableReadBody)
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, http.StatusBadRequest, ErrorInvalidBody)
		return false
	}

	return true
}
