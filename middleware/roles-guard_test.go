package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serveWithUser(user *UserToken, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	engine := gin.New()
	chain := []gin.HandlerFunc{func(c *gin.Context) {
		if user != nil {
			c.Set(UserContextKey, *user)
		}
		c.Next()
	}}
	chain = append(chain, handlers...)
	chain = append(chain, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	engine.GET("/protected", chain...)

	responseRecorder := httptest.NewRecorder()
	engine.ServeHTTP(responseRecorder, httptest.NewRequest(http.MethodGet, "/protected", nil))
	return responseRecorder
}

func TestRoleProtectionAllowsAnyMatchingRole(t *testing.T) {
	vet := &UserToken{Email: "vet@ranch.example", RealmAccess: RealmAccess{Roles: []UserRole{Veterinarian}}}

	response := serveWithUser(vet, RoleProtection([]UserRole{Veterinarian, Admin}, false, true))

	assert.Equal(t, http.StatusNoContent, response.Code)
}

func TestRoleProtectionRejectsMissingRole(t *testing.T) {
	worker := &UserToken{Email: "hand@ranch.example", RealmAccess: RealmAccess{Roles: []UserRole{Worker}}}

	response := serveWithUser(worker, RoleProtection([]UserRole{Admin}, false, true))

	assert.Equal(t, http.StatusForbidden, response.Code)
}

func TestRoleProtectionStrictNeedsAllRoles(t *testing.T) {
	rancher := &UserToken{RealmAccess: RealmAccess{Roles: []UserRole{Rancher}}}

	response := serveWithUser(rancher, RoleProtection([]UserRole{Rancher, Admin}, true, true))

	assert.Equal(t, http.StatusForbidden, response.Code)
}

func TestRoleProtectionWithoutUserIsUnauthorized(t *testing.T) {
	response := serveWithUser(nil, RoleProtection([]UserRole{Admin}, false, true))

	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

func TestRoleProtectionDisabledWithoutAuthMode(t *testing.T) {
	response := serveWithUser(nil, RoleProtection([]UserRole{Admin}, false, false))

	assert.Equal(t, http.StatusNoContent, response.Code)
}

func TestCheckAuthRejectsMissingBearer(t *testing.T) {
	response := serveWithUser(nil, CheckAuth(nil))

	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Contains(t, response.Body.String(), InvalidTokenResponse.MessageKey)
}

func TestGetRequestContextUsesToken(t *testing.T) {
	userID := uuid.New()
	user := UserToken{UserID: userID, Email: "jane@ranch.example", RealmAccess: RealmAccess{Roles: []UserRole{Worker, Rancher}}}
	engine := gin.New()
	var email, role, id string
	engine.GET("/whoami", func(c *gin.Context) {
		c.Set(UserContextKey, user)
		rc := GetRequestContext(c)
		email, role, id = rc.UserEmail, rc.UserRole, rc.UserID
		c.Status(http.StatusOK)
	})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, "jane@ranch.example", email)
	assert.Equal(t, "rancher", role)
	assert.Equal(t, userID.String(), id)
}
