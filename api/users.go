package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/circleci/sample-app/db"
	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/users"
)

var errDatabase = gin.H{"error": "Database error"}

func (a *API) listUsers(c *gin.Context) {
	ctx := c.Request.Context()

	records, err := a.store.List(ctx)
	if err != nil {
		o11y.LogError(ctx, "users: list", err,
			o11y.Field("error_class", db.ErrorClass(err)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errDatabase)
		return
	}

	if records == nil {
		records = []users.Record{}
	}
	o11y.AddField(ctx, "users", len(records))
	c.JSON(http.StatusOK, records)
}
