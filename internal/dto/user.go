package dto

import (
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// MeDTO represents the signed-in user with their coordinator scope
type MeDTO struct {
	UserDTO
	IsSuperAdmin   bool     `json:"is_super_admin"`
	ReviewerOrgIDs []uint64 `json:"reviewer_organization_ids"`
}

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InviteCode  string `json:"invite_code,omitempty"`
}

// PageMeta describes a page of a list response
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}

// ToMeDTO converts a user and the organizations they coordinate to MeDTO
func ToMeDTO(user models.User, reviewerOrgIDs []uint64) MeDTO {
	if reviewerOrgIDs == nil {
		reviewerOrgIDs = []uint64{}
	}
	return MeDTO{
		UserDTO:        ToUserDTO(user),
		IsSuperAdmin:   user.IsSuperAdmin,
		ReviewerOrgIDs: reviewerOrgIDs,
	}
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization, includeInviteCode bool) OrganizationDTO {
	dto := OrganizationDTO{
		ID:          org.ID,
		Name:        org.Name,
		Description: org.Description,
	}
	if includeInviteCode {
		dto.InviteCode = org.InviteCode
	}
	return dto
}

// ToPageMeta computes page metadata
func ToPageMeta(page, pageSize int, totalCount int64) PageMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return PageMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
