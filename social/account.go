package social

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Gravitalia/socialbook/invalidation"
	"github.com/Gravitalia/socialbook/model"
)

// Signup validation messages
const (
	PasswordMismatch = "Password fields didn't match."
	UsernameTaken    = "Username is already taken."
	EmailInUse       = "Email is already in use."
)

// ErrInvalidCredentials is returned by Login for an unknown username,
// a suspended account or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]{1,150}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Session is returned on signup and login
type Session struct {
	Account *model.Account `json:"user"`
	Token   string         `json:"token"`
}

// Signup validates the body, creates the account with its default profile
// and signs a token for it.
func (s *Service) Signup(ctx context.Context, body model.SignupBody) (*Session, error) {
	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)

	verr := &model.ValidationError{}
	if !usernameRegex.MatchString(body.Username) {
		verr.Add("username", "Enter a valid username.")
	}
	if body.Email != "" && !emailRegex.MatchString(body.Email) {
		verr.Add("email", "Enter a valid email address.")
	}
	if body.Password == "" {
		verr.Add("password", "This field is required.")
	} else if body.Password != body.ConfirmPassword {
		verr.Add("password", PasswordMismatch)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	taken, err := s.store.UsernameTaken(ctx, body.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		verr.Add("username", UsernameTaken)
	}
	if body.Email != "" {
		inUse, err := s.store.EmailTaken(ctx, body.Email)
		if err != nil {
			return nil, err
		}
		if inUse {
			verr.Add("email", EmailInUse)
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		verr.Add("password", "Ensure this field has no more than 72 bytes.")
		return nil, verr
	} else if err != nil {
		return nil, err
	}

	account := &model.Account{
		ID:           uuid.NewString(),
		Username:     body.Username,
		Email:        body.Email,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); errors.Is(err, model.ErrConflict) {
		// Lost a race against a concurrent signup.
		verr.Add("username", UsernameTaken)
		return nil, verr
	} else if err != nil {
		return nil, err
	}

	// A populate racing the deletion of a previous holder of the name may
	// have cached its view.
	s.invalidator.AccountChanged(ctx, account.Username)

	token, err := s.tokens.CreateToken(account.ID)
	if err != nil {
		return nil, err
	}

	return &Session{Account: account, Token: token}, nil
}

// Login checks the password of an active account and signs a token
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	account, err := s.store.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(account.ID)
	if err != nil {
		return nil, err
	}

	return &Session{Account: account, Token: token}, nil
}

// Me returns the account behind a token subject
func (s *Service) Me(ctx context.Context, accountID string) (*model.Account, error) {
	return s.activeAccount(ctx, accountID)
}

// DeleteAccount removes the account with everything it owns and evicts the
// views that embedded it.
func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	deletion := invalidation.Deletion{Username: account.Username, AccountID: account.ID}

	posts, err := s.store.PostsByAuthors(ctx, []string{account.ID})
	if err != nil {
		return err
	}
	for _, p := range posts {
		deletion.PostIDs = append(deletion.PostIDs, p.ID)
	}

	// The likes cascade with the account.
	liked, err := s.store.LikedPosts(ctx, account.ID)
	if err != nil {
		return err
	}
	var authors []string
	for _, id := range liked {
		post, err := s.store.GetPost(ctx, id)
		if err != nil {
			s.logger.Debug("skipping unresolvable liked post", "post", id, "error", err)
			continue
		}
		if post.AuthorID != account.ID {
			deletion.LikedPostIDs = append(deletion.LikedPostIDs, post.ID)
			authors = append(authors, post.AuthorID)
		}
	}

	following, err := s.store.Following(ctx, account.ID)
	if err != nil {
		return err
	}
	followers, err := s.store.Followers(ctx, account.ID)
	if err != nil {
		return err
	}
	related := append(append(following, followers...), authors...)
	deletion.Related = s.usernames(ctx, related)

	if err := s.store.DeleteAccount(ctx, account.ID); err != nil {
		return err
	}

	s.invalidator.AccountDeleted(ctx, deletion)
	s.logger.Info("account deleted", "account", account.ID)

	return nil
}

// SetActive suspends or restores the account named username
func (s *Service) SetActive(ctx context.Context, username string, active bool) (*model.Account, error) {
	account, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetAccountActive(ctx, account.ID, active); err != nil {
		return nil, err
	}
	account.Active = active

	s.invalidator.AccountChanged(ctx, account.Username)
	s.logger.Info("account activity changed", "account", account.ID, "active", active)

	return account, nil
}

// usernames resolves ids, skipping the ones that vanished meanwhile
func (s *Service) usernames(ctx context.Context, ids []string) []string {
	seen := make(map[string]bool, len(ids))
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		account, err := s.store.GetAccount(ctx, id)
		if err != nil {
			s.logger.Debug("skipping unresolvable account", "account", id, "error", err)
			continue
		}
		names = append(names, account.Username)
	}
	return names
}
