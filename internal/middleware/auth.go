package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/models"
	"github.com/thereayou/study-hub/pkg/auth"
)

const (
	IdentityKey = "identity"
	TokenKey    = "sessionToken"
)

// TokenBlacklist stores tokens revoked by logout.
type TokenBlacklist interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	exists, err := b.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (b *RedisBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistKey(token), "1", ttl).Err()
}

// Session resolves the request token into an identity. Requests without a
// usable token continue anonymously.
func Session(jwtManager *auth.JWTManager, blacklist TokenBlacklist, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractToken(c.Request)
		if err != nil {
			c.Next()
			return
		}

		claims, err := jwtManager.Verify(token)
		if err != nil {
			c.Next()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.Next()
			return
		}

		// Проверяем, не в черном списке ли токен
		revoked, err := blacklist.IsRevoked(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).Warn("token blacklist unavailable")
			c.Next()
			return
		}
		if revoked {
			c.Next()
			return
		}

		c.Set(IdentityKey, &models.Identity{UserID: userID, Nickname: claims.Nickname})
		c.Set(TokenKey, token)
		c.Next()
	}
}

// IdentityFrom returns the session identity, nil for anonymous requests.
func IdentityFrom(c *gin.Context) *models.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*models.Identity)
	return ident
}

func TokenFrom(c *gin.Context) string {
	return c.GetString(TokenKey)
}

// RequireLogin rejects anonymous requests.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}
