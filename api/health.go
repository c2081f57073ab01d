package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getHealth reports that the process is serving. It deliberately checks nothing else, the
// database has its own readiness check on the admin API.
func (a *API) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
