package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"field-agent/internal/apiclient"
	"field-agent/internal/model"
	"field-agent/internal/storage"
)

var ErrNoUserID = errors.New("no user ID found")

// ProfileService loads the logged-in agent's profile.
type ProfileService struct {
	client *apiclient.Client
	store  storage.Store
}

func NewProfileService(client *apiclient.Client, store storage.Store) *ProfileService {
	return &ProfileService{client: client, store: store}
}

func (s *ProfileService) Profile(ctx context.Context) (*model.UserProfile, error) {
	userID, err := storedUserID(ctx, s.store)
	if err != nil {
		return nil, err
	}
	var profile model.UserProfile
	if err := s.client.Get(ctx, "/users/"+url.PathEscape(userID), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func storedUserID(ctx context.Context, store storage.Store) (string, error) {
	userID, ok, err := store.Get(ctx, model.KeyUserID)
	if err != nil {
		return "", fmt.Errorf("read user id: %w: %w", apiclient.ErrSessionStore, err)
	}
	if !ok || userID == "" {
		return "", ErrNoUserID
	}
	return userID, nil
}
