package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Gravitalia/socialbook/model"
)

type likeKey struct{ post, account string }

type followKey struct{ follower, followee string }

// Memory is a Store kept in process memory. It applies the same
// constraints as the SQL schema and is used for tests and local runs.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
	profiles map[string]model.Profile
	posts    map[string]model.Post
	likes    map[likeKey]time.Time
	follows  map[followKey]time.Time
	now      func() time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]model.Account),
		profiles: make(map[string]model.Profile),
		posts:    make(map[string]model.Post),
		likes:    make(map[likeKey]time.Time),
		follows:  make(map[followKey]time.Time),
		now:      time.Now,
	}
}

func (m *Memory) CreateAccount(_ context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.ID]; ok {
		return model.ErrConflict
	}
	for _, a := range m.accounts {
		if strings.EqualFold(a.Username, account.Username) {
			return model.ErrConflict
		}
		if account.Email != "" && strings.EqualFold(a.Email, account.Email) {
			return model.ErrConflict
		}
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = m.now()
	}
	m.accounts[account.ID] = *account
	m.profiles[account.ID] = model.Profile{AccountID: account.ID, Avatar: model.DefaultAvatar}

	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return model.ErrNotFound
	}

	for pid, p := range m.posts {
		if p.AuthorID == id {
			m.deletePostLocked(pid)
		}
	}
	for k := range m.likes {
		if k.account == id {
			delete(m.likes, k)
		}
	}
	for k := range m.follows {
		if k.follower == id || k.followee == id {
			delete(m.follows, k)
		}
	}
	delete(m.profiles, id)
	delete(m.accounts, id)

	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) GetAccountByUsername(_ context.Context, username string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *Memory) UsernameTaken(_ context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if strings.EqualFold(a.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) EmailTaken(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Email != "" && strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) SetAccountActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return model.ErrNotFound
	}
	a.Active = active
	m.accounts[id] = a

	return nil
}

func (m *Memory) SearchAccounts(_ context.Context, term string) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	term = strings.ToLower(term)
	list := make([]model.Account, 0)
	for _, a := range m.accounts {
		if a.Active && strings.Contains(strings.ToLower(a.Username), term) {
			list = append(list, a)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })

	return list, nil
}

func (m *Memory) SuggestionCandidates(_ context.Context, viewerID string) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]model.Account, 0)
	for id, a := range m.accounts {
		if id == viewerID || !a.Active {
			continue
		}
		if _, followed := m.follows[followKey{viewerID, id}]; followed {
			continue
		}
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })

	return list, nil
}

func (m *Memory) GetProfile(_ context.Context, accountID string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[accountID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) GetProfiles(_ context.Context, accountIDs []string) (map[string]model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profiles := make(map[string]model.Profile, len(accountIDs))
	for _, id := range accountIDs {
		if p, ok := m.profiles[id]; ok {
			profiles[id] = p
		}
	}
	return profiles, nil
}

func (m *Memory) UpdateProfile(_ context.Context, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[profile.AccountID]; !ok {
		return model.ErrNotFound
	}
	m.profiles[profile.AccountID] = *profile

	return nil
}

func (m *Memory) CreatePost(_ context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[post.AuthorID]; !ok {
		return model.ErrNotFound
	}
	if _, ok := m.posts[post.ID]; ok {
		return model.ErrConflict
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = m.now()
	}
	stored := *post
	stored.Likes = 0
	m.posts[post.ID] = stored

	return nil
}

func (m *Memory) GetPost(_ context.Context, id string) (*model.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	p.Likes = m.countLikesLocked(id)
	return &p, nil
}

func (m *Memory) UpdatePost(_ context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[post.ID]
	if !ok {
		return model.ErrNotFound
	}
	p.Caption = post.Caption
	p.Description = post.Description
	m.posts[post.ID] = p

	return nil
}

func (m *Memory) SetPostImage(_ context.Context, id, image string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return false, model.ErrNotFound
	}
	if p.HasImage() {
		return false, nil
	}
	p.Image = image
	m.posts[id] = p

	return true, nil
}

func (m *Memory) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return model.ErrNotFound
	}
	m.deletePostLocked(id)

	return nil
}

func (m *Memory) deletePostLocked(id string) {
	for k := range m.likes {
		if k.post == id {
			delete(m.likes, k)
		}
	}
	delete(m.posts, id)
}

func (m *Memory) ListPosts(_ context.Context) ([]model.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collectPostsLocked(func(model.Post) bool { return true }), nil
}

func (m *Memory) PostsByAuthors(_ context.Context, authorIDs []string) ([]model.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	authors := make(map[string]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = struct{}{}
	}

	return m.collectPostsLocked(func(p model.Post) bool {
		_, ok := authors[p.AuthorID]
		return ok
	}), nil
}

func (m *Memory) collectPostsLocked(keep func(model.Post) bool) []model.Post {
	list := make([]model.Post, 0)
	for id, p := range m.posts {
		if !keep(p) {
			continue
		}
		p.Likes = m.countLikesLocked(id)
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	return list
}

func (m *Memory) CreateLike(_ context.Context, postID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[postID]; !ok {
		return model.ErrNotFound
	}
	if _, ok := m.accounts[accountID]; !ok {
		return model.ErrNotFound
	}
	k := likeKey{postID, accountID}
	if _, ok := m.likes[k]; ok {
		return model.ErrConflict
	}
	m.likes[k] = m.now()

	return nil
}

func (m *Memory) DeleteLike(_ context.Context, postID, accountID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := likeKey{postID, accountID}
	if _, ok := m.likes[k]; !ok {
		return false, nil
	}
	delete(m.likes, k)

	return true, nil
}

func (m *Memory) CountLikes(_ context.Context, postID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.countLikesLocked(postID), nil
}

func (m *Memory) LikedPosts(_ context.Context, accountID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0)
	for k := range m.likes {
		if k.account == accountID {
			ids = append(ids, k.post)
		}
	}
	sort.Strings(ids)

	return ids, nil
}

func (m *Memory) countLikesLocked(postID string) int64 {
	var n int64
	for k := range m.likes {
		if k.post == postID {
			n++
		}
	}
	return n
}

func (m *Memory) CreateFollow(_ context.Context, followerID, followeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if followerID == followeeID {
		return model.ErrSelfFollow
	}
	if _, ok := m.accounts[followerID]; !ok {
		return model.ErrNotFound
	}
	if _, ok := m.accounts[followeeID]; !ok {
		return model.ErrNotFound
	}
	k := followKey{followerID, followeeID}
	if _, ok := m.follows[k]; ok {
		return model.ErrConflict
	}
	m.follows[k] = m.now()

	return nil
}

func (m *Memory) DeleteFollow(_ context.Context, followerID, followeeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := followKey{followerID, followeeID}
	if _, ok := m.follows[k]; !ok {
		return false, nil
	}
	delete(m.follows, k)

	return true, nil
}

func (m *Memory) IsFollowing(_ context.Context, followerID, followeeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.follows[followKey{followerID, followeeID}]
	return ok, nil
}

func (m *Memory) Following(_ context.Context, accountID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0)
	for k := range m.follows {
		if k.follower == accountID {
			ids = append(ids, k.followee)
		}
	}
	sort.Strings(ids)

	return ids, nil
}

func (m *Memory) Followers(_ context.Context, accountID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0)
	for k := range m.follows {
		if k.followee == accountID {
			ids = append(ids, k.follower)
		}
	}
	sort.Strings(ids)

	return ids, nil
}

func (m *Memory) CountFollows(_ context.Context, accountID string) (int64, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var followers, following int64
	for k := range m.follows {
		if k.followee == accountID {
			followers++
		}
		if k.follower == accountID {
			following++
		}
	}
	return followers, following, nil
}

func (m *Memory) Close(context.Context) error {
	return nil
}
