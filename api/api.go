// Package api is the public HTTP API of the service.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/circleci/sample-app/httpserver/ginrouter"
	"github.com/circleci/sample-app/users"
)

// UserLister is the data access the API needs. *users.Store implements it.
type UserLister interface {
	List(ctx context.Context) ([]users.Record, error)
}

type API struct {
	router *gin.Engine
	store  UserLister
}

type Options struct {
	Store UserLister
}

func New(ctx context.Context, opts Options) *API {
	r := ginrouter.Default(ctx, "api")
	r.Use(ginrouter.CORS())

	a := &API{
		router: r,
		store:  opts.Store,
	}

	r.GET("/health", a.getHealth)
	r.GET("/api/users", a.listUsers)

	return a
}

func (a *API) Handler() http.Handler {
	return a.router
}
