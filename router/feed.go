package router

import "net/http"

// Feed returns the caller's home page
func (rt *Router) Feed(w http.ResponseWriter, req *http.Request) {
	id, ok := rt.authenticate(w, req)
	if !ok {
		return
	}

	feed, err := rt.social.Feed(req.Context(), id)
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, feed)
}

func (rt *Router) Suggestions(w http.ResponseWriter, req *http.Request) {
	id, ok := rt.authenticate(w, req)
	if !ok {
		return
	}

	cards, err := rt.social.Suggestions(req.Context(), id)
	if err != nil {
		rt.fail(w, req, err)
		return
	}

	respond(w, http.StatusOK, cards)
}
