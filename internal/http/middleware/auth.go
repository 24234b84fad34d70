package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/response"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
	ContextActorKey  = "actor"
)

// AuthMiddleware проверяет JWT access токен и кладет в контекст участника запроса.
func AuthMiddleware(tokens *auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			c.Abort()
			return
		}

		actor, err := tokens.ParseAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "токен невалиден")
			c.Abort()
			return
		}

		SetActor(c, actor)
		c.Next()
	}
}

// SetActor сохраняет участника запроса в контексте gin.
func SetActor(c *gin.Context, actor auth.Actor) {
	c.Set(ContextUserIDKey, actor.UserID)
	c.Set(ContextRoleKey, actor.Role)
	c.Set(ContextActorKey, actor)
}

// ActorFrom возвращает участника, установленного AuthMiddleware.
func ActorFrom(c *gin.Context) (auth.Actor, bool) {
	raw, exists := c.Get(ContextActorKey)
	if !exists {
		return auth.Actor{}, false
	}
	actor, ok := raw.(auth.Actor)
	return actor, ok
}
