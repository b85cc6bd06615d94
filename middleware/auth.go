package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
)

const UserContextKey = "User"

type JWKSProvider interface {
	GetJWKS() (*keyfunc.JWKS, error)
}

// CheckAuth - Token Validator for api requests
func CheckAuth(jwksProvider JWKSProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		token := strings.Split(authHeader, "Bearer ")

		if len(token) < 2 || token[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, InvalidTokenResponse)
			return
		}

		jwks, err := jwksProvider.GetJWKS()
		if err != nil {
			log.Error().Err(err).Msg(ErrFailedToLoadJwks.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrOpenIDConfiguration)
			return
		}

		userToken := UserToken{}
		_, err = jwt.ParseWithClaims(token[1], &userToken, jwks.Keyfunc)
		if err != nil {
			if validationErr, ok := err.(*jwt.ValidationError); ok && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, TokenExpiredResponse)
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, InvalidTokenResponse)
			return
		}

		if !userToken.VerifyExpiresAt(time.Now(), true) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, TokenExpiredResponse)
			return
		}

		c.Set(UserContextKey, userToken)
		c.Next()
	}
}

func GetUser(c *gin.Context) (UserToken, bool) {
	userObj, ok := c.Get(UserContextKey)
	if !ok {
		return UserToken{}, false
	}
	user, ok := userObj.(UserToken)
	return user, ok
}
