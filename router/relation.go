package router

import (
	"net/http"

	"github.com/Gravitalia/socialbook/model"
)

// Relation toggles a follow edge or a like, depending on route chosen.
// The body id is the followed account or the liked post.
func (rt *Router) Relation(w http.ResponseWriter, req *http.Request) {
	relation := req.PathValue("type")
	if relation != "follow" && relation != "like" {
		respondError(w, http.StatusBadRequest, ErrorInvalidRelation)
		return
	}

	id, ok := rt.authenticate(w, req)
	if !ok {
		return
	}

	var body model.SetBody
	if !decode(w, req, &body) {
		return
	}
	if body.ID == "" {
		respondError(w, http.StatusBadRequest, ErrorInvalidBody)
		return
	}

	if relation == "like" {
		result, err := rt.relations.ToggleLike(req.Context(), id, body.ID)
		if err != nil {
			rt.fail(w, req, err)
			return
		}
		respond(w, http.StatusOK, result)
		return
	}

	result, err := rt.relations.ToggleFollow(req.Context(), id, body.ID)
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	status := http.StatusOK
	if result.Following {
		status = http.StatusCreated
	}
	respond(w, status, result)
}
