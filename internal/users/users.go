package users

import (
	"context"
	"fmt"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// Account is a registered user together with its profile
type Account struct {
	User    models.User    `json:"user"`
	Profile models.Profile `json:"profile"`
}

// Service registers users
type Service struct {
	repo  repository.UserStore
	clock utils.Clock
}

// NewService creates a new users Service
func NewService(repo repository.UserStore, clock utils.Clock) *Service {
	return &Service{
		repo:  repo,
		clock: clock,
	}
}

// Register creates a user and its profile in one write. An empty role
// registers a bidder.
func (s *Service) Register(ctx context.Context, username, email string, role models.Role) (Account, error) {
	now := s.clock.Now()
	user, err := models.NewUser(utils.GenerateID(), username, email, now)
	if err != nil {
		return Account{}, fmt.Errorf("users: %w", err)
	}
	profile, err := models.NewProfile(user.UserID, role, now)
	if err != nil {
		return Account{}, fmt.Errorf("users: %w", err)
	}

	if err := s.repo.CreateUser(ctx, user, profile); err != nil {
		return Account{}, fmt.Errorf("users: failed to register %q: %w", user.Username, err)
	}

	utils.Info("users: registered", map[string]any{
		"user_id":  user.UserID,
		"username": user.Username,
		"role":     string(profile.Role),
	})
	return Account{User: user, Profile: profile}, nil
}

// GetUser returns a user and its profile
func (s *Service) GetUser(ctx context.Context, userID string) (Account, error) {
	if userID == "" {
		return Account{}, fmt.Errorf("users: %w - empty user ID", auctionerrors.ErrInvalidUser)
	}

	user, profile, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return Account{}, fmt.Errorf("users: failed to get user %s: %w", userID, err)
	}
	return Account{User: user, Profile: profile}, nil
}
