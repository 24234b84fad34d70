package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/response"
)

// currentActor пишет 401 в ответ, если участник не установлен.
func currentActor(c *gin.Context) (auth.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok || actor.UserID == uuid.Nil {
		response.Unauthorized(c, "требуется авторизация")
		return auth.Actor{}, false
	}
	return actor, true
}

// uuidParam пишет 400 в ответ, если параметр не UUID.
func uuidParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
