package router

import (
	"net/http"

	"github.com/Gravitalia/socialbook/model"
)

// LoginBody defines the body of the login route
type LoginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup creates an account and returns its first token
func (rt *Router) Signup(w http.ResponseWriter, req *http.Request) {
	var body model.SignupBody
	if !decode(w, req, &body) {
		return
	}

	session, err := rt.social.Signup(req.Context(), body)
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusCreated, session)
}

// Login exchanges credentials against a token
func (rt *Router) Login(w http.ResponseWriter, req *http.Request) {
	var body LoginBody
	if !decode(w, req, &body) {
		return
	}

	session, err := rt.social.Login(req.Context(), body.Username, body.Password)
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, session)
}
