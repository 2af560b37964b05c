package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Gravitalia/socialbook/model"
)

// Memgraph is a Store on a bolt graph database.
// Accounts own their profile through a Has edge, posts through Create;
// likes are Like edges and follow edges are Subscriber edges.
type Memgraph struct {
	driver neo4j.DriverWithContext
	now    func() time.Time
}

// NewMemgraph connects to the graph and creates the uniqueness constraints
func NewMemgraph(ctx context.Context, url, username, password string) (*Memgraph, error) {
	driver, err := neo4j.NewDriverWithContext(url, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create graph driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect graph: %w", err)
	}

	g := &Memgraph{driver: driver, now: time.Now}
	for _, q := range []string{
		"CREATE CONSTRAINT ON (a:Account) ASSERT a.id IS UNIQUE;",
		"CREATE CONSTRAINT ON (p:Post) ASSERT p.id IS UNIQUE;",
		"CREATE INDEX ON :Account(username);",
		"CREATE INDEX ON :Post(author_id);",
	} {
		if _, err := g.makeRequest(ctx, q, nil); err != nil {
			_ = driver.Close(ctx)
			return nil, fmt.Errorf("create graph schema: %w", err)
		}
	}

	return g, nil
}

func (g *Memgraph) execute(ctx context.Context, mode neo4j.AccessMode, work neo4j.ManagedTransactionWork) (any, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer session.Close(ctx)

	if mode == neo4j.AccessModeRead {
		return session.ExecuteRead(ctx, work)
	}
	return session.ExecuteWrite(ctx, work)
}

// makeRequest runs a write query and returns the first value of the first record
func (g *Memgraph) makeRequest(ctx context.Context, query string, params map[string]any) (any, error) {
	return g.execute(ctx, neo4j.AccessModeWrite, func(tx neo4j.ManagedTransaction) (any, error) {
		return first(ctx, tx, query, params)
	})
}

func first(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) (any, error) {
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if result.Next(ctx) {
		return result.Record().Values[0], nil
	}
	return nil, result.Err()
}

func (g *Memgraph) collect(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	records, err := g.execute(ctx, neo4j.AccessModeRead, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

func str(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func integer(v any) int64 {
	n, _ := v.(int64)
	return n
}

func stamp(props map[string]any, key string) time.Time {
	return time.Unix(0, integer(props[key])).UTC()
}

func accountFrom(v any) (model.Account, bool) {
	node, ok := v.(neo4j.Node)
	if !ok {
		return model.Account{}, false
	}
	active, _ := node.Props["active"].(bool)
	staff, _ := node.Props["staff"].(bool)

	return model.Account{
		ID:           str(node.Props, "id"),
		Username:     str(node.Props, "username"),
		Email:        str(node.Props, "email"),
		FirstName:    str(node.Props, "first_name"),
		LastName:     str(node.Props, "last_name"),
		PasswordHash: str(node.Props, "password_hash"),
		Active:       active,
		Staff:        staff,
		CreatedAt:    stamp(node.Props, "created_at"),
	}, true
}

func profileFrom(v any) (model.Profile, bool) {
	node, ok := v.(neo4j.Node)
	if !ok {
		return model.Profile{}, false
	}
	return model.Profile{
		AccountID: str(node.Props, "account_id"),
		Bio:       str(node.Props, "bio"),
		Avatar:    str(node.Props, "avatar"),
		Location:  str(node.Props, "location"),
	}, true
}

func postFrom(v any, likes any) (model.Post, bool) {
	node, ok := v.(neo4j.Node)
	if !ok {
		return model.Post{}, false
	}
	return model.Post{
		ID:          str(node.Props, "id"),
		AuthorID:    str(node.Props, "author_id"),
		Image:       str(node.Props, "image"),
		Caption:     str(node.Props, "caption"),
		Description: str(node.Props, "description"),
		CreatedAt:   stamp(node.Props, "created_at"),
		Likes:       integer(likes),
	}, true
}

func (g *Memgraph) CreateAccount(ctx context.Context, account *model.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = g.now().UTC()
	}
	params := map[string]any{
		"id":            account.ID,
		"username":      account.Username,
		"username_key":  strings.ToLower(account.Username),
		"email":         account.Email,
		"email_key":     strings.ToLower(account.Email),
		"first_name":    account.FirstName,
		"last_name":     account.LastName,
		"password_hash": account.PasswordHash,
		"active":        account.Active,
		"staff":         account.Staff,
		"created_at":    account.CreatedAt.UnixNano(),
		"avatar":        model.DefaultAvatar,
	}

	_, err := g.execute(ctx, neo4j.AccessModeWrite, func(tx neo4j.ManagedTransaction) (any, error) {
		taken, err := first(ctx, tx,
			"MATCH (x:Account) WHERE x.id = $id OR x.username_key = $username_key OR ($email_key <> '' AND x.email_key = $email_key) RETURN count(x);",
			params)
		if err != nil {
			return nil, err
		}
		if integer(taken) > 0 {
			return nil, model.ErrConflict
		}

		return first(ctx, tx,
			"CREATE (a:Account {id: $id, username: $username, username_key: $username_key, email: $email, email_key: $email_key, first_name: $first_name, last_name: $last_name, password_hash: $password_hash, active: $active, staff: $staff, created_at: $created_at})-[:Has]->(:Profile {account_id: $id, bio: '', avatar: $avatar, location: ''}) RETURN a.id;",
			params)
	})
	return err
}

func (g *Memgraph) DeleteAccount(ctx context.Context, id string) error {
	_, err := g.execute(ctx, neo4j.AccessModeWrite, func(tx neo4j.ManagedTransaction) (any, error) {
		n, err := first(ctx, tx, "MATCH (u:Account {id: $id}) RETURN count(u);", map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if integer(n) == 0 {
			return nil, model.ErrNotFound
		}

		for _, q := range []string{
			"MATCH (:Account {id: $id})-[:Create]->(p:Post) DETACH DELETE p;",
			"MATCH (:Account {id: $id})-[:Has]->(pr:Profile) DETACH DELETE pr;",
			"MATCH (u:Account {id: $id}) DETACH DELETE u;",
		} {
			if _, err := first(ctx, tx, q, map[string]any{"id": id}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (g *Memgraph) getAccount(ctx context.Context, query string, params map[string]any) (*model.Account, error) {
	records, err := g.collect(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, model.ErrNotFound
	}
	a, ok := accountFrom(records[0].Values[0])
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

func (g *Memgraph) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return g.getAccount(ctx, "MATCH (a:Account {id: $id}) RETURN a;", map[string]any{"id": id})
}

func (g *Memgraph) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	return g.getAccount(ctx, "MATCH (a:Account {username: $username}) RETURN a;", map[string]any{"username": username})
}

func (g *Memgraph) count(ctx context.Context, query string, params map[string]any) (int64, error) {
	records, err := g.collect(ctx, query, params)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return integer(records[0].Values[0]), nil
}

func (g *Memgraph) UsernameTaken(ctx context.Context, username string) (bool, error) {
	n, err := g.count(ctx, "MATCH (a:Account {username_key: $key}) RETURN count(a);",
		map[string]any{"key": strings.ToLower(username)})
	return n > 0, err
}

func (g *Memgraph) EmailTaken(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	n, err := g.count(ctx, "MATCH (a:Account {email_key: $key}) RETURN count(a);",
		map[string]any{"key": strings.ToLower(email)})
	return n > 0, err
}

func (g *Memgraph) SetAccountActive(ctx context.Context, id string, active bool) error {
	res, err := g.makeRequest(ctx, "MATCH (a:Account {id: $id}) SET a.active = $active RETURN a.id;",
		map[string]any{"id": id, "active": active})
	if err != nil {
		return err
	}
	if res == nil {
		return model.ErrNotFound
	}
	return nil
}

func (g *Memgraph) accounts(ctx context.Context, query string, params map[string]any) ([]model.Account, error) {
	records, err := g.collect(ctx, query, params)
	if err != nil {
		return nil, err
	}

	list := make([]model.Account, 0, len(records))
	for _, r := range records {
		if a, ok := accountFrom(r.Values[0]); ok {
			list = append(list, a)
		}
	}
	return list, nil
}

func (g *Memgraph) SearchAccounts(ctx context.Context, term string) ([]model.Account, error) {
	return g.accounts(ctx,
		"MATCH (a:Account) WHERE a.active AND a.username_key CONTAINS $term RETURN a ORDER BY a.username;",
		map[string]any{"term": strings.ToLower(term)})
}

func (g *Memgraph) SuggestionCandidates(ctx context.Context, viewerID string) ([]model.Account, error) {
	return g.accounts(ctx,
		"MATCH (a:Account) WHERE a.active AND a.id <> $id AND NOT exists((:Account {id: $id})-[:Subscriber]->(a)) RETURN a ORDER BY a.username;",
		map[string]any{"id": viewerID})
}

func (g *Memgraph) GetProfile(ctx context.Context, accountID string) (*model.Profile, error) {
	records, err := g.collect(ctx, "MATCH (:Account {id: $id})-[:Has]->(p:Profile) RETURN p;",
		map[string]any{"id": accountID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, model.ErrNotFound
	}
	p, _ := profileFrom(records[0].Values[0])
	return &p, nil
}

func (g *Memgraph) GetProfiles(ctx context.Context, accountIDs []string) (map[string]model.Profile, error) {
	records, err := g.collect(ctx, "MATCH (p:Profile) WHERE p.account_id IN $ids RETURN p;",
		map[string]any{"ids": accountIDs})
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]model.Profile, len(records))
	for _, r := range records {
		if p, ok := profileFrom(r.Values[0]); ok {
			profiles[p.AccountID] = p
		}
	}
	return profiles, nil
}

func (g *Memgraph) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	res, err := g.makeRequest(ctx,
		"MATCH (p:Profile {account_id: $id}) SET p.bio = $bio, p.avatar = $avatar, p.location = $location RETURN p.account_id;",
		map[string]any{"id": profile.AccountID, "bio": profile.Bio, "avatar": profile.Avatar, "location": profile.Location})
	if err != nil {
		return err
	}
	if res == nil {
		return model.ErrNotFound
	}
	return nil
}

func (g *Memgraph) CreatePost(ctx context.Context, post *model.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = g.now().UTC()
	}
	res, err := g.makeRequest(ctx,
		"MATCH (u:Account {id: $author}) CREATE (u)-[:Create]->(p:Post {id: $id, author_id: $author, image: $image, caption: $caption, description: $description, created_at: $created_at}) RETURN p.id;",
		map[string]any{
			"id":          post.ID,
			"author":      post.AuthorID,
			"image":       post.Image,
			"caption":     post.Caption,
			"description": post.Description,
			"created_at":  post.CreatedAt.UnixNano(),
		})
	if err != nil {
		var nerr *neo4j.Neo4jError
		if errors.As(err, &nerr) && strings.Contains(strings.ToLower(nerr.Msg), "constraint") {
			return model.ErrConflict
		}
		return err
	}
	if res == nil {
		return model.ErrNotFound
	}
	return nil
}

func (g *Memgraph) posts(ctx context.Context, query string, params map[string]any) ([]model.Post, error) {
	records, err := g.collect(ctx, query, params)
	if err != nil {
		return nil, err
	}

	list := make([]model.Post, 0, len(records))
	for _, r := range records {
		if p, ok := postFrom(r.Values[0], r.Values[1]); ok {
			list = append(list, p)
		}
	}
	return list, nil
}

func (g *Memgraph) GetPost(ctx context.Context, id string) (*model.Post, error) {
	list, err := g.posts(ctx,
		"MATCH (p:Post {id: $id}) OPTIONAL MATCH (p)<-[:Like]-(l:Account) RETURN p, count(l) AS likes;",
		map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, model.ErrNotFound
	}
	return &list[0], nil
}

func (g *Memgraph) UpdatePost(ctx context.Context, post *model.Post) error {
	res, err := g.makeRequest(ctx,
		"MATCH (p:Post {id: $id}) SET p.caption = $caption, p.description = $description RETURN p.id;",
		map[string]any{"id": post.ID, "caption": post.Caption, "description": post.Description})
	if err != nil {
		return err
	}
	if res == nil {
		return model.ErrNotFound
	}
	return nil
}

func (g *Memgraph) SetPostImage(ctx context.Context, id, image string) (bool, error) {
	res, err := g.execute(ctx, neo4j.AccessModeWrite, func(tx neo4j.ManagedTransaction) (any, error) {
		current, err := first(ctx, tx, "MATCH (p:Post {id: $id}) RETURN p.image;", map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, model.ErrNotFound
		}
		if current.(string) != "" {
			return false, nil
		}
		if _, err := first(ctx, tx, "MATCH (p:Post {id: $id}) SET p.image = $image RETURN p.id;",
			map[string]any{"id": id, "image": image}); err != nil {
			return nil, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (g *Memgraph) DeletePost(ctx context.Context, id string) error {
	_, err := g.execute(ctx, neo4j.AccessModeWrite, func(tx neo4j.ManagedTransaction) (any, error) {
		n, err := first(ctx, tx, "MATCH (p:Post {id: $id}) RETURN count(p);", map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if integer(n) == 0 {
			return nil, model.ErrNotFound
		}
		return first(ctx, tx, "MATCH (p:Post {id: $id}) DETACH DELETE p;", map[string]any{"id": id})
	})
	return err
}

func (g *Memgraph) ListPosts(ctx context.Context) ([]model.Post, error) {
	return g.posts(ctx,
		"MATCH (p:Post) OPTIONAL MATCH (p)<-[:Like]-(l:Account) RETURN p, count(l) AS likes ORDER BY p.created_at DESC, p.id;",
		nil)
}

func (g *Memgraph) PostsByAuthors(ctx context.Context, authorIDs []string) ([]model.Post, error) {
	return g.posts(ctx,
		"MATCH (p:Post) WHERE p.author_id IN $ids OPTIONAL MATCH (p)<-[:Like]-(l:Account) RETURN p, count(l) AS likes ORDER BY p.created_at DESC, p.id;",
		map[string]any{"ids": authorIDs})
}

// createEdge creates a relation between two nodes unless it already exists
func (g *Memgraph) createEdge(ctx context.Context, relation, target, from, to string) error {
	params := map[string]any{"from": from, "to": to, "now": g.now().UnixNano()}

	_, err := g.execute(ctx, neo4j.AccessModeWrite, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			"MATCH (a:Account {id: $from}), (b:"+target+" {id: $to}) OPTIONAL MATCH (a)-[r:"+relation+"]->(b) RETURN count(r) QUERY MEMORY LIMIT 10 KB;",
			params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, model.ErrNotFound
		}
		if integer(result.Record().Values[0]) > 0 {
			return nil, model.ErrConflict
		}

		return first(ctx, tx,
			"MATCH (a:Account {id: $from}), (b:"+target+" {id: $to}) CREATE (a)-[r:"+relation+" {created_at: $now}]->(b) RETURN type(r);",
			params)
	})
	return err
}

func (g *Memgraph) deleteEdge(ctx context.Context, relation, target, from, to string) (bool, error) {
	res, err := g.makeRequest(ctx,
		"MATCH (a:Account {id: $from})-[r:"+relation+"]->(b:"+target+" {id: $to}) DELETE r RETURN count(*);",
		map[string]any{"from": from, "to": to})
	if err != nil {
		return false, err
	}
	return integer(res) > 0, nil
}

func (g *Memgraph) CreateLike(ctx context.Context, postID, accountID string) error {
	return g.createEdge(ctx, "Like", "Post", accountID, postID)
}

func (g *Memgraph) DeleteLike(ctx context.Context, postID, accountID string) (bool, error) {
	return g.deleteEdge(ctx, "Like", "Post", accountID, postID)
}

func (g *Memgraph) CountLikes(ctx context.Context, postID string) (int64, error) {
	return g.count(ctx, "MATCH (:Account)-[:Like]->(p:Post {id: $id}) RETURN count(*) QUERY MEMORY LIMIT 10 KB;",
		map[string]any{"id": postID})
}

func (g *Memgraph) LikedPosts(ctx context.Context, accountID string) ([]string, error) {
	return g.ids(ctx, "MATCH (:Account {id: $id})-[:Like]->(p:Post) RETURN p.id ORDER BY p.id;", accountID)
}

func (g *Memgraph) CreateFollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return model.ErrSelfFollow
	}
	return g.createEdge(ctx, "Subscriber", "Account", followerID, followeeID)
}

func (g *Memgraph) DeleteFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	return g.deleteEdge(ctx, "Subscriber", "Account", followerID, followeeID)
}

func (g *Memgraph) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	n, err := g.count(ctx,
		"MATCH (:Account {id: $from})-[r:Subscriber]->(:Account {id: $to}) RETURN count(r) QUERY MEMORY LIMIT 1 KB;",
		map[string]any{"from": followerID, "to": followeeID})
	return n > 0, err
}

func (g *Memgraph) Following(ctx context.Context, accountID string) ([]string, error) {
	return g.ids(ctx, "MATCH (:Account {id: $id})-[:Subscriber]->(b:Account) RETURN b.id ORDER BY b.id;", accountID)
}

func (g *Memgraph) Followers(ctx context.Context, accountID string) ([]string, error) {
	return g.ids(ctx, "MATCH (a:Account)-[:Subscriber]->(:Account {id: $id}) RETURN a.id ORDER BY a.id;", accountID)
}

func (g *Memgraph) ids(ctx context.Context, query, accountID string) ([]string, error) {
	records, err := g.collect(ctx, query, map[string]any{"id": accountID})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		if id, ok := r.Values[0].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (g *Memgraph) CountFollows(ctx context.Context, accountID string) (int64, int64, error) {
	followers, err := g.count(ctx,
		"MATCH (:Account)-[:Subscriber]->(d:Account {id: $id}) RETURN count(*) QUERY MEMORY LIMIT 10 KB;",
		map[string]any{"id": accountID})
	if err != nil {
		return 0, 0, err
	}

	following, err := g.count(ctx,
		"MATCH (:Account {id: $id})-[:Subscriber]->(:Account) RETURN count(*) QUERY MEMORY LIMIT 10 KB;",
		map[string]any{"id": accountID})
	if err != nil {
		return 0, 0, err
	}

	return followers, following, nil
}

func (g *Memgraph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}
