package router

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/Gravitalia/socialbook/model"
)

// Suspend deactivates or restores the account named by the username query.
// It requires the administration token.
func (rt *Router) Suspend(w http.ResponseWriter, req *http.Request) {
	token := req.Header.Get("Authorization")
	if rt.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(rt.adminToken)) != 1 {
		respondError(w, http.StatusUnauthorized, ErrorInvalidToken)
		return
	}

	if !req.URL.Query().Has("username") {
		respondError(w, http.StatusBadRequest, ErrorInvalidUser)
		return
	}

	suspend := true
	if req.URL.Query().Has("suspend") {
		d, err := strconv.ParseBool(req.URL.Query().Get("suspend"))
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrorInvalidQuery)
			return
		}
		suspend = d
	}

	if _, err := rt.social.SetActive(req.Context(), req.URL.Query().Get("username"), !suspend); err != nil {
		rt.fail(w, req, err)
		return
	}

	message := OkSuspended
	if !suspend {
		message = OkReinstated
	}
	respond(w, http.StatusOK, model.RequestError{
		Error:   false,
		Message: message,
	})
}
