package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"LumeChat/tools/errs"
	jwtlib "LumeChat/tools/security"
)

// CtxUserKey is where the middleware stores the verified caller id; handlers
// read the identity from here and never from request bodies.
const CtxUserKey = "authUserID"

// Middleware verifies the Bearer token and binds its subject to the request
// context. No token, no request: everything behind it requires identity.
func Middleware(opts jwtlib.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrUnauthenticated)
			return
		}
		sub, err := jwtlib.VerifySubject(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrUnauthenticated.WithDetail(err.Error()))
			return
		}
		c.Set(CtxUserKey, sub)
		c.Next()
	}
}

// CallerID returns the verified user id bound by Middleware.
func CallerID(c *gin.Context) string {
	v, _ := c.Get(CtxUserKey)
	id, _ := v.(string)
	return id
}
