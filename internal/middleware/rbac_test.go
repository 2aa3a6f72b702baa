package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academix-io/academix-api/internal/models"
)

func performRBAC(t *testing.T, claims *models.JWTClaims, paramID string, allowed ...string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/resource", nil)
	c.Request = req
	if paramID != "" {
		c.Params = gin.Params{{Key: "id", Value: paramID}}
	}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	RBAC(allowed...)(c)
	return w
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	w := performRBAC(t, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, "", string(models.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	w := performRBAC(t, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}, "", string(models.RoleAdmin))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	w := performRBAC(t, nil, "", string(models.RoleAdmin))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACSelfAccess(t *testing.T) {
	w := performRBAC(t, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}, "stu-1", string(models.RoleAdmin), "SELF")
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRBAC(t, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}, "stu-2", string(models.RoleAdmin), "SELF")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
