package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/constants"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Opportunity{},
		&models.Application{},
		&models.Assignment{},
		&models.TimeLog{},
		&models.OutboxEvent{},
	))

	gin.SetMode(gin.TestMode)
	return db
}

// authAs stands in for the session and actor middleware. It reads the
// actor at request time so one router can serve several users.
func authAs(current *lifecycle.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, current.UserID)
		c.Set(constants.ContextKeyActor, *current)
		c.Next()
	}
}

func doRequest(t *testing.T, r *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, DisplayName: email}
	require.NoError(t, db.Create(user).Error)
	return user
}

// newTestRouter wires the full API over db, authenticating every request
// as *current.
func newTestRouter(t *testing.T, db *gorm.DB, current *lifecycle.Actor, now time.Time) *gin.Engine {
	t.Helper()

	logger := zaptest.NewLogger(t)
	orgRepo := repository.NewOrganizationRepository(db)
	orgService := services.NewOrganizationService(orgRepo)
	actorService := services.NewActorService(repository.NewUserRepository(db), orgRepo)
	engine := lifecycle.NewEngine(repository.NewStore(db), logger,
		lifecycle.WithClock(func() time.Time { return now }),
		lifecycle.WithMetrics(lifecycle.NewMetrics(prometheus.NewRegistry())),
	)

	r := gin.New()
	api := r.Group("/api", authAs(current))
	RegisterRoutes(api, orgService, Handlers{
		Users:         NewUserHandler(actorService, logger),
		Organizations: NewOrganizationHandler(orgService, logger),
		Opportunities: NewOpportunityHandler(engine, logger),
		Applications:  NewApplicationHandler(engine, logger),
		Assignments:   NewAssignmentHandler(engine, logger),
		TimeLogs:      NewTimeLogHandler(engine, logger),
	})
	return r
}
