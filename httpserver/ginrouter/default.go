// Package ginrouter builds gin engines with the standard middleware applied.
package ginrouter

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/o11y/wrappers/o11ygin"
)

var once sync.Once

// Default returns a gin engine that traces every request with the provider in ctx, recovers
// panics and records client cancellations.
func Default(ctx context.Context, serverName string) *gin.Engine {
	once.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	r := gin.New()
	r.Use(
		o11ygin.Middleware(o11y.FromContext(ctx), serverName),
		o11ygin.Recovery(),
		o11ygin.ClientCancelled(),
	)

	r.UseRawPath = true

	return r
}

// CORS allows cross-origin requests from any origin, with any request headers. Credentials are
// not allowed, so browsers honour the wildcard.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut,
			http.MethodPatch, http.MethodPost, http.MethodDelete,
		},
		AllowHeaders: []string{"*"},
		MaxAge:       12 * time.Hour,
	})
}
