package model

// ProfileView is the materialized profile page. It is viewer independent
// so it can be cached under a single key per username.
type ProfileView struct {
	Account   Account `json:"user"`
	Profile   Profile `json:"profile"`
	Posts     []Post  `json:"posts"`
	Followers int64   `json:"followers"`
	Following int64   `json:"following"`
}

// ProfileResponse adds the viewer dependent flag to a cached ProfileView
type ProfileResponse struct {
	ProfileView
	Followed bool `json:"followed"`
}

// PostView is a single post with its author and like count
type PostView struct {
	Post   Post   `json:"post"`
	Author string `json:"author"`
}

// ProfileCard is one entry of search results and suggestion lists
type ProfileCard struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Avatar    string `json:"avatar"`
	Location  string `json:"location,omitempty"`
}

// Feed is the home page of an authenticated account
type Feed struct {
	Profile     Profile       `json:"user_profile"`
	Posts       []Post        `json:"posts"`
	Suggestions []ProfileCard `json:"suggestions"`
}

// Card builds a ProfileCard from an account and its profile
func Card(a Account, p Profile) ProfileCard {
	return ProfileCard{
		AccountID: a.ID,
		Username:  a.Username,
		Bio:       p.Bio,
		Avatar:    p.Avatar,
		Location:  p.Location,
	}
}
