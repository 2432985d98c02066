package utils

import (
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}$`)

	first, err := GenerateInviteCode()
	require.NoError(t, err)
	second, err := GenerateInviteCode()
	require.NoError(t, err)

	assert.Regexp(t, pattern, first)
	assert.NotEqual(t, first, second)
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&page_size=10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"?page=-2&page_size=1000", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"?page=abc", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)
			assert.Equal(t, tt.want, GetPaginationParams(c))
		})
	}
}

func TestNewPaginationParamsWithoutPage(t *testing.T) {
	assert.Equal(t, PaginationParams{}, NewPaginationParams(0, 10))
	assert.Equal(t, PaginationParams{}, NewPaginationParams(2, 0))
}
