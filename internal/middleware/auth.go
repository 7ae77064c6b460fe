package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/formpilot/formpilot/config"
	"github.com/formpilot/formpilot/internal/dto"
)

const (
	ContextUserID = "userID"
	ContextEmail  = "userEmail"
	ContextRole   = "userRole"
)

// RequireAuth validates the Bearer token and stores the caller's identity in
// the gin context under the Context* keys.
func RequireAuth(cfg *config.Config) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Kind:    dto.KindUnauthorized,
				Message: "Missing or malformed Authorization header",
			})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return []byte(cfg.JWT.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Kind:    dto.KindUnauthorized,
				Message: "Invalid or expired token",
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Kind:    dto.KindUnauthorized,
				Message: "Invalid token claims",
			})
			return
		}

		sub, ok := claims["sub"].(float64)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Kind:    dto.KindUnauthorized,
				Message: "Invalid token subject",
			})
			return
		}

		ctx.Set(ContextUserID, uint(sub))
		if email, ok := claims["email"].(string); ok {
			ctx.Set(ContextEmail, email)
		}
		if role, ok := claims["role"].(string); ok {
			ctx.Set(ContextRole, role)
		}
		ctx.Next()
	}
}

// UserID returns the authenticated user's id from the gin context.
func UserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
