package http

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"

	actorKey = "actor"
)

// ActorClaims is the bearer token payload: the subject is the user id.
type ActorClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// SignActorToken issues an HS256 token for actor that expires after ttl.
func SignActorToken(secret string, actor models.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (rs *RestfulServer) parseToken(header string) (models.Actor, bool) {
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return models.Actor{}, false
	}

	var claims ActorClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(rs.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.Subject == "" {
		return models.Actor{}, false
	}
	return models.Actor{ID: claims.Subject, Role: claims.Role}, true
}

// Authenticate resolves the calling actor and aborts with 401 when there is none.
func (rs *RestfulServer) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var actor models.Actor
		var ok bool
		if rs.JWTSecret != "" {
			actor, ok = rs.parseToken(c.GetHeader("Authorization"))
		} else {
			actor = models.Actor{
				ID:   strings.TrimSpace(c.GetHeader(HeaderUserID)),
				Role: models.Role(strings.TrimSpace(c.GetHeader(HeaderUserRole))),
			}
			ok = actor.ID != ""
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid credentials"})
			return
		}

		if actor.Role == "" {
			actor.Role = models.RoleUser
		}
		// system is reserved for the process itself
		if !slices.Contains(models.Roles, string(actor.Role)) || actor.Role == models.RoleSystem {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown role"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// LimitActor applies the per-user bucket to every authenticated request.
func (rs *RestfulServer) LimitActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rs.CheckLimiter("api", "user:"+actorFrom(c).ID) {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

// canSee reports whether actor may read data owned by ownerID.
func canSee(actor models.Actor, ownerID string) bool {
	return actor.ID == ownerID || actor.Role.Privileged()
}
