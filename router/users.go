package router

import (
	"net/http"

	"github.com/Gravitalia/socialbook/model"
)

// Users returns the profile page of a user. @me designates the caller.
func (rt *Router) Users(w http.ResponseWriter, req *http.Request) {
	username := req.PathValue("username")
	viewer := rt.viewer(req)

	if username == ME {
		id, ok := rt.authenticate(w, req)
		if !ok {
			return
		}
		me, err := rt.social.Me(req.Context(), id)
		if err != nil {
			rt.fail(w, req, err)
			return
		}
		username = me.Username
	}

	view, err := rt.social.ProfileView(req.Context(), username, viewer)
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, view)
}

// UpdateMe edits the caller's profile settings
func (rt *Router) UpdateMe(w http.ResponseWriter, req *http.Request) {
	id, ok := rt.authenticate(w, req)
	if !ok {
		return
	}

	var body model.ProfileUpdate
	if !decode(w, req, &body) {
		return
	}

	profile, err := rt.social.UpdateProfile(req.Context(), id, body)
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, profile)
}

// DeleteMe deletes the caller's account and everything it owns
func (rt *Router) DeleteMe(w http.ResponseWriter, req *http.Request) {
	id, ok := rt.authenticate(w, req)
	if !ok {
		return
	}

	if err := rt.social.DeleteAccount(req.Context(), id); err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, model.RequestError{
		Error:   false,
		Message: OkDeletedUser,
	})
}

// Search lists the users whose username contains the q query
func (rt *Router) Search(w http.ResponseWriter, req *http.Request) {
	if !req.URL.Query().Has("q") {
		respondError(w, http.StatusBadRequest, ErrorInvalidQuery)
		return
	}

	cards, err := rt.social.Search(req.Context(), req.URL.Query().Get("q"))
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, cards)
}
