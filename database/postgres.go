package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gravitalia/socialbook/model"
)

// Postgres error codes translated into model errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

const postColumns = `p.id, p.author_id, p.image, p.caption, p.description, p.created_at,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS likes`

const accountColumns = `id, username, email, first_name, last_name, password_hash, active, staff, created_at`

// Postgres is the relational Store backed by a pgx connection pool
type Postgres struct {
	pool *pgxpool.Pool
}

// PoolOptions tunes the connection pool
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres connects to the given DSN and pings it
func NewPostgres(ctx context.Context, dsn string, opts PoolOptions) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool
func NewPostgresFromPool(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", model.ErrConflict, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", model.ErrNotFound, pgErr.ConstraintName)
		case checkViolation:
			return model.ErrSelfFollow
		}
	}

	return err
}

func (s *Postgres) CreateAccount(ctx context.Context, account *model.Account) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO accounts (id, username, email, first_name, last_name, password_hash, active, staff)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
		account.ID, account.Username, account.Email, account.FirstName, account.LastName,
		account.PasswordHash, account.Active, account.Staff,
	).Scan(&account.CreatedAt)
	if err != nil {
		return translate(err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO profiles (account_id, avatar) VALUES ($1, $2)`,
		account.ID, model.DefaultAvatar,
	); err != nil {
		return translate(err)
	}

	return tx.Commit(ctx)
}

func (s *Postgres) DeleteAccount(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FirstName, &a.LastName,
		&a.PasswordHash, &a.Active, &a.Staff, &a.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Postgres) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (s *Postgres) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username))
}

func (s *Postgres) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, translate(err)
	}
	return ok, nil
}

func (s *Postgres) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE LOWER(username) = LOWER($1))`, username)
}

func (s *Postgres) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email <> '' AND LOWER(email) = LOWER($1))`, email)
}

func (s *Postgres) SetAccountActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE accounts SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Postgres) queryAccounts(ctx context.Context, query string, args ...any) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	list := make([]model.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}

	return list, translate(rows.Err())
}

func (s *Postgres) SearchAccounts(ctx context.Context, term string) ([]model.Account, error) {
	return s.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE active AND username ILIKE '%' || $1 || '%' ESCAPE '\'
		 ORDER BY username`, escapeLike(term))
}

func (s *Postgres) SuggestionCandidates(ctx context.Context, viewerID string) ([]model.Account, error) {
	return s.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts a
		 WHERE a.active AND a.id <> $1
		   AND NOT EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.followee_id = a.id)
		 ORDER BY a.username`, viewerID)
}

func (s *Postgres) GetProfile(ctx context.Context, accountID string) (*model.Profile, error) {
	var p model.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT account_id, bio, avatar, location FROM profiles WHERE account_id = $1`, accountID,
	).Scan(&p.AccountID, &p.Bio, &p.Avatar, &p.Location)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Postgres) GetProfiles(ctx context.Context, accountIDs []string) (map[string]model.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT account_id, bio, avatar, location FROM profiles WHERE account_id = ANY($1)`, accountIDs)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	profiles := make(map[string]model.Profile, len(accountIDs))
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.AccountID, &p.Bio, &p.Avatar, &p.Location); err != nil {
			return nil, translate(err)
		}
		profiles[p.AccountID] = p
	}

	return profiles, translate(rows.Err())
}

func (s *Postgres) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET bio = $2, avatar = $3, location = $4 WHERE account_id = $1`,
		profile.AccountID, profile.Bio, profile.Avatar, profile.Location)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Postgres) CreatePost(ctx context.Context, post *model.Post) error {
	var createdAt *time.Time
	if !post.CreatedAt.IsZero() {
		createdAt = &post.CreatedAt
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO posts (id, author_id, image, caption, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6::timestamptz, NOW())) RETURNING created_at`,
		post.ID, post.AuthorID, post.Image, post.Caption, post.Description, createdAt,
	).Scan(&post.CreatedAt)
	return translate(err)
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var p model.Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Image, &p.Caption, &p.Description,
		&p.CreatedAt, &p.Likes); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Postgres) GetPost(ctx context.Context, id string) (*model.Post, error) {
	return scanPost(s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id))
}

func (s *Postgres) UpdatePost(ctx context.Context, post *model.Post) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE posts SET caption = $2, description = $3 WHERE id = $1`,
		post.ID, post.Caption, post.Description)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Postgres) SetPostImage(ctx context.Context, id, image string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE posts SET image = $2 WHERE id = $1 AND image = ''`, id, image)
	if err != nil {
		return false, translate(err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	if _, err := s.GetPost(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Postgres) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Postgres) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	list := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}

	return list, translate(rows.Err())
}

func (s *Postgres) ListPosts(ctx context.Context) ([]model.Post, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts p ORDER BY p.created_at DESC, p.id`)
}

func (s *Postgres) PostsByAuthors(ctx context.Context, authorIDs []string) ([]model.Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.author_id = ANY($1) ORDER BY p.created_at DESC, p.id`,
		authorIDs)
}

func (s *Postgres) CreateLike(ctx context.Context, postID, accountID string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO likes (post_id, account_id) VALUES ($1, $2)`, postID, accountID)
	return translate(err)
}

func (s *Postgres) DeleteLike(ctx context.Context, postID, accountID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM likes WHERE post_id = $1 AND account_id = $2`, postID, accountID)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) CountLikes(ctx context.Context, postID string) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&n); err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (s *Postgres) LikedPosts(ctx context.Context, accountID string) ([]string, error) {
	return s.queryIDs(ctx, `SELECT post_id FROM likes WHERE account_id = $1 ORDER BY post_id`, accountID)
}

func (s *Postgres) CreateFollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return model.ErrSelfFollow
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)`, followerID, followeeID)
	return translate(err)
}

func (s *Postgres) DeleteFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	return s.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`,
		followerID, followeeID)
}

func (s *Postgres) Following(ctx context.Context, accountID string) ([]string, error) {
	return s.queryIDs(ctx, `SELECT followee_id FROM follows WHERE follower_id = $1 ORDER BY followee_id`, accountID)
}

func (s *Postgres) Followers(ctx context.Context, accountID string) ([]string, error) {
	return s.queryIDs(ctx, `SELECT follower_id FROM follows WHERE followee_id = $1 ORDER BY follower_id`, accountID)
}

func (s *Postgres) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, translate(err)
		}
		ids = append(ids, id)
	}

	return ids, translate(rows.Err())
}

func (s *Postgres) CountFollows(ctx context.Context, accountID string) (int64, int64, error) {
	var followers, following int64
	err := s.pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM follows WHERE followee_id = $1),
		   (SELECT COUNT(*) FROM follows WHERE follower_id = $1)`, accountID,
	).Scan(&followers, &following)
	if err != nil {
		return 0, 0, translate(err)
	}
	return followers, following, nil
}

func (s *Postgres) Close(context.Context) error {
	s.pool.Close()
	return nil
}
