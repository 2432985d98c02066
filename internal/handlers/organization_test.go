package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

type organizationTestEnv struct {
	db      *gorm.DB
	current *lifecycle.Actor
	owner   *models.User
	member  *models.User
}

func setupOrganizationTestEnv(t *testing.T) (*organizationTestEnv, func(method, url string, body interface{}) (int, []byte)) {
	t.Helper()

	db := setupTestDB(t)
	env := &organizationTestEnv{
		db:      db,
		current: &lifecycle.Actor{},
		owner:   createTestUser(t, db, "owner@example.com"),
		member:  createTestUser(t, db, "member@example.com"),
	}
	router := newTestRouter(t, db, env.current, time.Now())

	do := func(method, url string, body interface{}) (int, []byte) {
		w := doRequest(t, router, method, url, body)
		return w.Code, w.Body.Bytes()
	}
	return env, do
}

func (env *organizationTestEnv) as(user *models.User) {
	*env.current = lifecycle.Actor{UserID: user.ID, SuperAdmin: user.IsSuperAdmin}
}

func TestOrganizationHandler_CreateAndList(t *testing.T) {
	env, do := setupOrganizationTestEnv(t)
	env.as(env.owner)

	code, body := do(http.MethodPost, "/api/organizations", map[string]string{
		"name":        "Food Bank",
		"description": "Weekly distribution",
	})
	require.Equal(t, http.StatusCreated, code)

	var created dto.OrganizationDTO
	require.NoError(t, json.Unmarshal(body, &created))
	require.Equal(t, "Food Bank", created.Name)
	require.NotEmpty(t, created.InviteCode)

	code, body = do(http.MethodGet, "/api/organizations", nil)
	require.Equal(t, http.StatusOK, code)

	var response map[string][]dto.OrganizationWithRoleDTO
	require.NoError(t, json.Unmarshal(body, &response))
	orgs := response["organizations"]
	require.Len(t, orgs, 1)
	require.Equal(t, "Food Bank", orgs[0].Name)
	require.Equal(t, models.RoleOwner, orgs[0].Role)
}

func TestOrganizationHandler_CreateOrganization_BlankName(t *testing.T) {
	env, do := setupOrganizationTestEnv(t)
	env.as(env.owner)

	code, body := do(http.MethodPost, "/api/organizations", map[string]string{"name": "   "})
	require.Equal(t, http.StatusBadRequest, code)

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(body, &apiErr))
	require.Equal(t, apierrors.ErrCodeInvalidInput, apiErr.Code)
}

func TestOrganizationHandler_JoinOrganization_InvalidCode(t *testing.T) {
	env, do := setupOrganizationTestEnv(t)
	env.as(env.member)

	code, _ := do(http.MethodPost, "/api/organizations/join", map[string]string{"invite_code": "UNKNOWN"})
	require.Equal(t, http.StatusNotFound, code)
}

// createJoinedOrganization creates an organization owned by env.owner that
// env.member has joined, and returns its ID.
func createJoinedOrganization(t *testing.T, env *organizationTestEnv, do func(string, string, interface{}) (int, []byte)) uint64 {
	t.Helper()

	env.as(env.owner)
	code, body := do(http.MethodPost, "/api/organizations", map[string]string{"name": "Shelter"})
	require.Equal(t, http.StatusCreated, code)
	var org dto.OrganizationDTO
	require.NoError(t, json.Unmarshal(body, &org))

	env.as(env.member)
	code, _ = do(http.MethodPost, "/api/organizations/join", map[string]string{"invite_code": org.InviteCode})
	require.Equal(t, http.StatusOK, code)

	code, _ = do(http.MethodPost, "/api/organizations/join", map[string]string{"invite_code": org.InviteCode})
	require.Equal(t, http.StatusConflict, code)

	return org.ID
}

func TestOrganizationHandler_MemberView(t *testing.T) {
	env, do := setupOrganizationTestEnv(t)
	orgID := createJoinedOrganization(t, env, do)

	env.as(env.member)
	code, body := do(http.MethodGet, fmt.Sprintf("/api/organizations/%d", orgID), nil)
	require.Equal(t, http.StatusOK, code)

	var detail dto.OrganizationDetailDTO
	require.NoError(t, json.Unmarshal(body, &detail))
	require.Equal(t, models.RoleMember, detail.YourRole)
	require.Empty(t, detail.InviteCode)
	require.Len(t, detail.Members, 2)

	code, _ = do(http.MethodPut, fmt.Sprintf("/api/organizations/%d", orgID), map[string]string{"name": "Mine"})
	require.Equal(t, http.StatusForbidden, code)
}

func TestOrganizationHandler_NonMemberGetsNotFound(t *testing.T) {
	env, do := setupOrganizationTestEnv(t)
	env.as(env.owner)
	code, body := do(http.MethodPost, "/api/organizations", map[string]string{"name": "Private"})
	require.Equal(t, http.StatusCreated, code)
	var org dto.OrganizationDTO
	require.NoError(t, json.Unmarshal(body, &org))

	env.as(env.member)
	code, _ = do(http.MethodGet, fmt.Sprintf("/api/organizations/%d", org.ID), nil)
	require.Equal(t, http.StatusNotFound, code)

	admin := createTestUser(t, env.db, "admin@example.com")
	admin.IsSuperAdmin = true
	env.as(admin)
	code, _ = do(http.MethodGet, fmt.Sprintf("/api/organizations/%d", org.ID), nil)
	require.Equal(t, http.StatusOK, code)
}

func TestOrganizationHandler_SetMemberRole(t *testing.T) {
	env, do := setupOrganizationTestEnv(t)
	orgID := createJoinedOrganization(t, env, do)
	rolePath := fmt.Sprintf("/api/organizations/%d/members/%d/role", orgID, env.member.ID)

	env.as(env.owner)
	code, _ := do(http.MethodPut, rolePath, map[string]string{"role": "owner"})
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = do(http.MethodPut, rolePath, map[string]string{"role": "coordinator"})
	require.Equal(t, http.StatusOK, code)

	var member models.OrganizationMember
	require.NoError(t, env.db.Where("organization_id = ? AND user_id = ?", orgID, env.member.ID).First(&member).Error)
	require.Equal(t, models.RoleCoordinator, member.Role)

	ownerPath := fmt.Sprintf("/api/organizations/%d/members/%d/role", orgID, env.owner.ID)
	code, _ = do(http.MethodPut, ownerPath, map[string]string{"role": "member"})
	require.Equal(t, http.StatusForbidden, code)

	env.as(env.member)
	code, body := do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, code)
	var me dto.MeDTO
	require.NoError(t, json.Unmarshal(body, &me))
	require.Equal(t, env.member.Email, me.Email)
}

func TestOrganizationHandler_RemoveMember(t *testing.T) {
	env, do := setupOrganizationTestEnv(t)
	orgID := createJoinedOrganization(t, env, do)

	env.as(env.owner)
	code, _ := do(http.MethodDelete, fmt.Sprintf("/api/organizations/%d/members/%d", orgID, env.owner.ID), nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = do(http.MethodDelete, fmt.Sprintf("/api/organizations/%d/members/abc", orgID), nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = do(http.MethodDelete, fmt.Sprintf("/api/organizations/%d/members/%d", orgID, env.member.ID), nil)
	require.Equal(t, http.StatusOK, code)

	var count int64
	require.NoError(t, env.db.Model(&models.OrganizationMember{}).Where("organization_id = ?", orgID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestOrganizationHandler_DeleteOrganizationWithOpportunities(t *testing.T) {
	env, do := setupOrganizationTestEnv(t)
	env.as(env.owner)

	code, body := do(http.MethodPost, "/api/organizations", map[string]string{"name": "Busy"})
	require.Equal(t, http.StatusCreated, code)
	var org dto.OrganizationDTO
	require.NoError(t, json.Unmarshal(body, &org))

	require.NoError(t, env.db.Create(&models.Opportunity{
		OrganizationID: org.ID,
		Title:          "Sorting",
		SlotsNeeded:    1,
		Status:         models.OpportunityStatusDraft,
		StartDate:      time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
	}).Error)

	code, body = do(http.MethodDelete, fmt.Sprintf("/api/organizations/%d", org.ID), nil)
	require.Equal(t, http.StatusConflict, code)
	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(body, &apiErr))
	require.Equal(t, apierrors.ErrCodeResourceInUse, apiErr.Code)
}
