package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/repository"
)

type HealthGroup struct {
	backend     repository.BackendRepository
	redisClient *common.RedisClient
	routerGroup *echo.Group
}

// NewHealthGroup registers the health check. rdb is nil in local mode.
func NewHealthGroup(g *echo.Group, backend repository.BackendRepository, rdb *common.RedisClient) *HealthGroup {
	group := &HealthGroup{routerGroup: g, backend: backend, redisClient: rdb}

	g.GET("", group.HealthCheck)

	return group
}

func (h *HealthGroup) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.backend.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("health check failed: store")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "not ok",
			"error":  err.Error(),
		})
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Msg("health check failed: redis")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"status": "not ok",
				"error":  err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
