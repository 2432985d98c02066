package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/utils"
)

var (
	ErrOrganizationNotFound         = errors.New("organization not found")
	ErrInvalidOrganizationName      = errors.New("organization name cannot be empty")
	ErrInviteCodeGenerationFailed   = errors.New("failed to generate invite code")
	ErrInvalidInviteCode            = errors.New("invalid invite code")
	ErrAlreadyOrganizationMember    = errors.New("user is already a member of this organization")
	ErrCannotRemoveYourself         = errors.New("cannot remove yourself from the organization")
	ErrOrganizationMemberNotFound   = errors.New("organization member not found")
	ErrInvalidRole                  = errors.New("invalid organization role")
	ErrCannotChangeOwnerRole        = errors.New("the owner's role cannot be changed")
	ErrOrganizationHasOpportunities = errors.New("organization still has opportunities")
)

// OrganizationService manages organizations and the memberships that decide
// who may coordinate volunteers for them.
type OrganizationService struct {
	orgRepo repository.OrganizationRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name        string
	Description string
	OwnerID     uint64
}

// CreateOrganization creates an organization with its owner.
func (s *OrganizationService) CreateOrganization(input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org := &models.Organization{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		InviteCode:  inviteCode,
	}
	owner := &models.OrganizationMember{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		JoinedAt: time.Now().UTC(),
	}

	if err := s.orgRepo.Create(org, owner); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return org, nil
}

// ListOrganizationsForUser returns the memberships of a user.
func (s *OrganizationService) ListOrganizationsForUser(userID uint64) ([]models.OrganizationMember, error) {
	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetMembership returns the membership of a user in an organization.
func (s *OrganizationService) GetMembership(orgID, userID uint64) (*models.OrganizationMember, error) {
	member, err := s.orgRepo.FindMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to find organization member: %w", err)
	}
	return member, nil
}

// GetOrganizationWithMembers returns an organization and all of its members.
func (s *OrganizationService) GetOrganizationWithMembers(orgID uint64) (*models.Organization, []models.OrganizationMember, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	return org, members, nil
}

// UpdateOrganizationInput holds the editable organization fields.
type UpdateOrganizationInput struct {
	Name        *string
	Description *string
}

// UpdateOrganization changes the name or description of an organization.
func (s *OrganizationService) UpdateOrganization(orgID uint64, input UpdateOrganizationInput) (*models.Organization, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidOrganizationName
		}
		org.Name = name
	}
	if input.Description != nil {
		org.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

// DeleteOrganization removes an organization that no longer has opportunities.
func (s *OrganizationService) DeleteOrganization(orgID uint64) error {
	if _, err := s.findOrganization(orgID); err != nil {
		return err
	}

	count, err := s.orgRepo.CountOpportunities(orgID)
	if err != nil {
		return fmt.Errorf("failed to count opportunities: %w", err)
	}
	if count > 0 {
		return ErrOrganizationHasOpportunities
	}

	if err := s.orgRepo.Delete(orgID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	return nil
}

// JoinOrganizationByInvite adds a user to an organization as a member.
func (s *OrganizationService) JoinOrganizationByInvite(userID uint64, inviteCode string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByInviteCode(strings.TrimSpace(inviteCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find organization by invite code: %w", err)
	}

	if _, err := s.orgRepo.FindMember(org.ID, userID); err == nil {
		return nil, ErrAlreadyOrganizationMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           models.RoleMember,
		JoinedAt:       time.Now().UTC(),
	}

	if err := s.orgRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to organization: %w", err)
	}

	return org, nil
}

// RegenerateInviteCode replaces the invite code of the organization.
func (s *OrganizationService) RegenerateInviteCode(orgID uint64) (*models.Organization, error) {
	org, err := s.findOrganization(orgID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	org.InviteCode = code
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}

	return org, nil
}

// SetMemberRole promotes or demotes a member. Only coordinator and member
// can be assigned; ownership does not change hands here.
func (s *OrganizationService) SetMemberRole(orgID, targetID uint64, role models.OrganizationRole) (*models.OrganizationMember, error) {
	if role != models.RoleCoordinator && role != models.RoleMember {
		return nil, ErrInvalidRole
	}

	member, err := s.GetMembership(orgID, targetID)
	if err != nil {
		return nil, err
	}
	if member.Role == models.RoleOwner {
		return nil, ErrCannotChangeOwnerRole
	}

	if err := s.orgRepo.UpdateMemberRole(orgID, targetID, role); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	member.Role = role
	return member, nil
}

// RemoveMember removes a member from the organization.
func (s *OrganizationService) RemoveMember(orgID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	member, err := s.GetMembership(orgID, targetID)
	if err != nil {
		return err
	}
	if member.Role == models.RoleOwner {
		return ErrCannotChangeOwnerRole
	}

	if err := s.orgRepo.RemoveMember(orgID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

func (s *OrganizationService) findOrganization(orgID uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}
