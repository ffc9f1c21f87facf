package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"field-agent/internal/apiclient"
	"field-agent/internal/model"
	"field-agent/internal/storage"
)

var ErrMissingCredentials = errors.New("email and password are required")

// AuthService logs agents in and out and inspects the persisted session.
type AuthService struct {
	client *apiclient.Client
	store  storage.Store
}

func NewAuthService(client *apiclient.Client, store storage.Store) *AuthService {
	return &AuthService{client: client, store: store}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates against the backend and persists the session.
// With rememberMe the token is also kept as savedToken together with the email.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*model.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var result model.LoginResult
	if err := s.client.Post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &result, apiclient.NoAuth()); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login response carries no token")
	}

	userID := result.User.ID.String()
	if rememberMe {
		if err := s.setAll(ctx,
			model.KeyToken, result.Token,
			model.KeySavedToken, result.Token,
			model.KeyRememberedEmail, email,
			model.KeyRememberMe, model.RememberMeValue,
			model.KeyUserID, userID,
		); err != nil {
			return nil, err
		}
	} else {
		if err := s.setAll(ctx,
			model.KeyToken, result.Token,
			model.KeyUserID, userID,
		); err != nil {
			return nil, err
		}
		if err := s.removeAll(ctx, model.KeySavedToken, model.KeyRememberedEmail, model.KeyRememberMe); err != nil {
			return nil, err
		}
	}

	log.Printf("[info] login ok user=%s remember=%t", userID, rememberMe)
	return &result, nil
}

// Logout clears every session key. The theme preference is kept.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.removeAll(ctx, model.SessionKeys...)
}

// RememberedLogin reports the remembered email and whether the login screen can be skipped:
// that needs the email, rememberMe="true" and a savedToken.
func (s *AuthService) RememberedLogin(ctx context.Context) (string, bool, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return "", false, err
	}
	return sess.RememberedEmail, sess.RememberedEmail != "" && sess.RememberMe && sess.SavedToken != "", nil
}

// Session loads the persisted session.
func (s *AuthService) Session(ctx context.Context) (model.Session, error) {
	values := make(map[string]string, len(model.SessionKeys))
	for _, key := range model.SessionKeys {
		value, _, err := s.store.Get(ctx, key)
		if err != nil {
			return model.Session{}, fmt.Errorf("read %s: %w: %w", key, apiclient.ErrSessionStore, err)
		}
		values[key] = value
	}
	return model.Session{
		Token:           values[model.KeyToken],
		SavedToken:      values[model.KeySavedToken],
		UserID:          values[model.KeyUserID],
		RememberMe:      values[model.KeyRememberMe] == model.RememberMeValue,
		RememberedEmail: values[model.KeyRememberedEmail],
	}, nil
}

// TokenExpiry reads the exp claim of the current token without verifying it.
// The signature is the backend's business; this is only shown to the agent.
func (s *AuthService) TokenExpiry(ctx context.Context) (time.Time, bool) {
	sess, err := s.Session(ctx)
	if err != nil {
		return time.Time{}, false
	}
	token := sess.Token
	if token == "" {
		token = sess.SavedToken
	}
	return tokenExpiry(token)
}

func tokenExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// setAll writes key/value pairs in order; a failure leaves earlier writes in place.
func (s *AuthService) setAll(ctx context.Context, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := s.store.Set(ctx, pairs[i], pairs[i+1]); err != nil {
			return fmt.Errorf("store %s: %w", pairs[i], err)
		}
	}
	return nil
}

func (s *AuthService) removeAll(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := s.store.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
