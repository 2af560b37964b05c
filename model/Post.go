package model

import "time"

// Post struct defines how post must be
type Post struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Image       string    `json:"image"`
	Caption     string    `json:"caption"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// Likes is only filled by queries that aggregate the like count.
	Likes int64 `json:"likes"`
}

// HasImage reports whether the image reference has been resolved.
// An empty reference is the placeholder left until the worker fills it.
func (p Post) HasImage() bool {
	return p.Image != ""
}

// PostBody defines how body when posting
// new image must be
type PostBody struct {
	Caption     string `json:"caption"`
	Description string `json:"description"`
	// Image is a data URL, e.g. "data:image/png;base64,iVBOR...".
	Image string `json:"image,omitempty"`
}

// PostUpdate carries the editable fields of a post
type PostUpdate struct {
	Caption     *string `json:"caption,omitempty"`
	Description *string `json:"description,omitempty"`
}
