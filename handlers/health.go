package handlers

import (
	"net/http"

	"glowdesk/utils"

	"github.com/gin-gonic/gin"
)

// Healthz reports the latest stored health snapshot.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}
