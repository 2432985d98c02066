package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// ActorService builds the lifecycle actor of the signed-in user from the
// user record and the organizations they coordinate.
type ActorService struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
}

// NewActorService creates a new ActorService.
func NewActorService(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository) *ActorService {
	return &ActorService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
	}
}

// Resolve returns the actor for a user.
func (s *ActorService) Resolve(userID uint64) (lifecycle.Actor, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return lifecycle.Actor{}, err
	}

	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return lifecycle.Actor{}, fmt.Errorf("failed to list memberships: %w", err)
	}

	actor := lifecycle.Actor{
		UserID:     user.ID,
		SuperAdmin: user.IsSuperAdmin,
	}
	for _, m := range memberships {
		if m.Role.CanReview() {
			actor.ReviewerOrgIDs = append(actor.ReviewerOrgIDs, m.OrganizationID)
		}
	}
	return actor, nil
}

// GetUser returns a user by ID.
func (s *ActorService) GetUser(userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GrantSuperAdmin grants or revokes platform-wide administration for the
// user with the given email.
func (s *ActorService) GrantSuperAdmin(email string, grant bool) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.userRepo.SetSuperAdmin(user.ID, grant); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.IsSuperAdmin = grant
	return user, nil
}
