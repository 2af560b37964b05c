package router

import (
	"net/http"

	"github.com/Gravitalia/socialbook/model"
)

// ListPosts returns every post, newest first
func (rt *Router) ListPosts(w http.ResponseWriter, req *http.Request) {
	posts, err := rt.social.ListPosts(req.Context())
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, posts)
}

// NewPost creates a post. Its image is resolved asynchronously.
func (rt *Router) NewPost(w http.ResponseWriter, req *http.Request) {
	id, ok := rt.authenticate(w, req)
	if !ok {
		return
	}

	var body model.PostBody
	if !decode(w, req, &body) {
		return
	}

	post, err := rt.social.CreatePost(req.Context(), id, body)
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusCreated, post)
}

func (rt *Router) GetPost(w http.ResponseWriter, req *http.Request) {
	post, err := rt.social.GetPost(req.Context(), req.PathValue("id"))
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, post)
}

func (rt *Router) UpdatePost(w http.ResponseWriter, req *http.Request) {
	id, ok := rt.authenticate(w, req)
	if !ok {
		return
	}

	var body model.PostUpdate
	if !decode(w, req, &body) {
		return
	}

	post, err := rt.social.UpdatePost(req.Context(), id, req.PathValue("id"), body)
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, post)
}

func (rt *Router) DeletePost(w http.ResponseWriter, req *http.Request) {
	id, ok := rt.authenticate(w, req)
	if !ok {
		return
	}

	if err := rt.social.DeletePost(req.Context(), id, req.PathValue("id")); err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, model.RequestError{
		Error:   false,
		Message: OkDeletedPost,
	})
}
