package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/constants"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Organization{}, &models.OrganizationMember{}))
	return db
}

// sessionRouter mounts a login route that writes the session the way the
// identity provider does, and a protected route behind RequireAuth.
func sessionRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()

	orgRepo := repository.NewOrganizationRepository(db)
	actorService := services.NewActorService(repository.NewUserRepository(db), orgRepo)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret-key-123"))))
	r.POST("/login/:id", func(c *gin.Context) {
		session := sessions.Default(c)
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		session.Set(constants.ContextKeyUserID, id)
		require.NoError(t, session.Save())
		c.Status(http.StatusNoContent)
	})

	protected := r.Group("/api", RequireAuth(), ResolveActor(actorService, zaptest.NewLogger(t)))
	protected.GET("/whoami", func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "reviewer_orgs": len(actor.ReviewerOrgIDs)})
	})
	protected.GET("/orgs/:id", RequireOrganizationAccess(services.NewOrganizationService(orgRepo)), RequireOrganizationReviewer(), func(c *gin.Context) {
		member, _ := GetOrganizationMember(c)
		c.JSON(http.StatusOK, gin.H{"role": member.Role})
	})
	return r
}

func login(t *testing.T, r *gin.Engine, userID uint64) []*http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login/"+formatID(userID), nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	return w.Result().Cookies()
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func get(r *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_NoSession(t *testing.T) {
	r := sessionRouter(t, setupDB(t))

	w := get(r, "/api/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	r := sessionRouter(t, setupDB(t))

	w := get(r, "/api/whoami", login(t, r, 42))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResolveActor_CollectsReviewerOrganizations(t *testing.T) {
	db := setupDB(t)
	user := &models.User{Email: "coord@example.com"}
	require.NoError(t, db.Create(user).Error)

	orgs := []models.Organization{{Name: "A", InviteCode: "A"}, {Name: "B", InviteCode: "B"}}
	require.NoError(t, db.Create(&orgs).Error)
	require.NoError(t, db.Create(&[]models.OrganizationMember{
		{OrganizationID: orgs[0].ID, UserID: user.ID, Role: models.RoleCoordinator},
		{OrganizationID: orgs[1].ID, UserID: user.ID, Role: models.RoleMember},
	}).Error)

	r := sessionRouter(t, db)
	cookies := login(t, r, user.ID)

	w := get(r, "/api/whoami", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":`+formatID(user.ID)+`,"reviewer_orgs":1}`, w.Body.String())

	w = get(r, "/api/orgs/"+formatID(orgs[0].ID), cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/api/orgs/"+formatID(orgs[1].ID), cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(r, "/api/orgs/999", cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(r, "/api/orgs/abc", cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToUserID(t *testing.T) {
	tests := []struct {
		in   interface{}
		want uint64
		ok   bool
	}{
		{uint64(7), 7, true},
		{uint(7), 7, true},
		{int64(7), 7, true},
		{7, 7, true},
		{0, 0, false},
		{int64(-1), 0, false},
		{"7", 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := toUserID(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(RequestLogger(logger), Recovery(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	for _, path := range []string{"/ok", "/missing", "/panic"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	requests := logs.FilterMessage("HTTP Request").All()
	require.Len(t, requests, 3)
	assert.Equal(t, zapcore.InfoLevel, requests[0].Level)
	assert.Equal(t, zapcore.WarnLevel, requests[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, requests[2].Level)
	assert.Equal(t, int64(http.StatusInternalServerError), requests[2].ContextMap()["status"])
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}
