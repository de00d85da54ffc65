package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/auth"
	"github.com/minegocio/backend/internal/infrastructure/logger"
	"github.com/minegocio/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Authenticator validates a bearer token, including revocation
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Authenticator Authenticator
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(authenticator Authenticator) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		Authenticator: authenticator,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
			"/api/v1/auth/login",
		},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(authenticator))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if tokenString == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.Authenticator.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		c.Set(JWTClaimsKey, claims)

		ctx := c.Request.Context()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

var authErrorMessages = map[error]string{
	auth.ErrExpiredToken:     "Token has expired",
	auth.ErrInvalidToken:     "Invalid token",
	auth.ErrInvalidTokenType: "Invalid token type",
	auth.ErrInvalidClaims:    "Invalid token",
	auth.ErrMissingUserID:    "Invalid token",
	auth.ErrTokenNotYetValid: "Token is not yet valid",
	auth.ErrTokenBlacklisted: "Token has been revoked",
}

// handleAuthError answers 401 for token problems. Anything else means the
// revocation store failed and is reported as an internal error.
func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	for known, text := range authErrorMessages {
		if errors.Is(err, known) {
			cfg.Logger.Debug("JWT authentication failed",
				zap.Error(err),
				zap.String("message", message),
				zap.String("path", c.Request.URL.Path))
			AbortWithError(c, &dto.ErrorInfo{Code: dto.ErrCodeUnauthorized, Message: text})
			return
		}
	}

	logger.L(c.Request.Context()).Error("Token revocation check failed", zap.Error(err))
	AbortWithError(c, &dto.ErrorInfo{Code: dto.ErrCodeInternal, Message: "An unexpected error occurred"})
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetActor returns the authenticated caller. ok is false on public routes.
func GetActor(c *gin.Context) (identity.Actor, bool) {
	claims := GetJWTClaims(c)
	if claims == nil {
		return identity.Actor{}, false
	}
	return identity.Actor{UserID: claims.UserID, Role: identity.Role(claims.Role)}, true
}

// RequireCapability rejects callers the policy does not allow to perform
// action. It must run after the JWT middleware.
func RequireCapability(policy *identity.Policy, action identity.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			AbortWithError(c, &dto.ErrorInfo{Code: dto.ErrCodeUnauthorized, Message: "Authentication required"})
			return
		}
		if !policy.Can(actor, action) {
			logger.L(c.Request.Context()).Info("Capability denied",
				zap.String("action", string(action)),
				zap.String("role", string(actor.Role)))
			AbortWithError(c, &dto.ErrorInfo{Code: dto.ErrCodeForbidden, Message: shared.ErrForbidden.Message})
			return
		}
		c.Next()
	}
}
