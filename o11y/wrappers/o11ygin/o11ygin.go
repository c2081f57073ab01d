// Package o11ygin provides gin middleware that traces each request and records a handler timing
// metric.
package o11ygin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/circleci/sample-app/o11y"
)

const contextCancelledKey = "o11y-context-cancelled-key"

// StatusClientClosedRequest is recorded when the client goes away before a response is written.
const StatusClientClosedRequest = 499

// Middleware starts a server span for every request, continuing any trace propagated in the
// request headers.
func Middleware(provider o11y.Provider, serverName string) gin.HandlerFunc {
	m := provider.MetricsProvider()
	return func(c *gin.Context) {
		before := time.Now()

		route := c.FullPath()
		if route == "" {
			route = "not-found"
		}

		ctx := o11y.WithProvider(c.Request.Context(), provider)
		ctx, span := startSpan(ctx, c, provider, route)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		for _, param := range c.Params {
			span.AddRawField("handler.vars."+param.Key, param.Value)
		}

		c.Header("X-Route", route)

		span.AddRawField("meta.type", "http_server")
		span.AddRawField("http.server_name", serverName)
		semconvServerRequest(span, requestVals{
			Req:      c.Request,
			Route:    route,
			ClientIP: c.ClientIP(),
		})

		defer func() {
			status := c.Writer.Status()
			if c.GetBool(contextCancelledKey) {
				status = StatusClientClosedRequest
			}
			semconvServerResponse(span, status, c.Writer.Size())

			if m != nil {
				_ = m.TimeInMilliseconds("handler",
					float64(time.Since(before).Nanoseconds())/1000000.0,
					[]string{
						"http.server_name:" + serverName,
						"http.method:" + c.Request.Method,
						"http.route:" + route,
						"http.status_code:" + strconv.Itoa(status),
					},
					1,
				)
			}
		}()

		c.Next()
	}
}

// ClientCancelled traps a request context cancellation so the request is recorded as a 499
// (a la nginx). Any gin errors raised while handling, for instance during rendering, are added
// to the active span.
func ClientCancelled() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		defer func() {
			if errors.Is(ctx.Err(), context.Canceled) {
				c.Set(contextCancelledKey, true)
				return
			}
			if len(c.Errors) > 0 {
				o11y.AddField(ctx, "gin_internal_error", c.Errors.String())
			}
		}()
		c.Next()
	}
}

// Recovery turns a panic into a 500 and reports it through o11y.HandlePanic.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		c.AbortWithStatus(http.StatusInternalServerError)
		ctx := c.Request.Context()
		span := o11y.FromContext(ctx).GetSpan(ctx)
		if span == nil {
			return
		}

		// Most likely caused by the client disappearing. Not really a panic
		// https://github.com/golang/go/issues/28239
		if origErr, ok := err.(error); ok && errors.Is(origErr, http.ErrAbortHandler) {
			o11y.AddResultToSpan(span, origErr)
			return
		}

		_ = o11y.HandlePanic(ctx, span, err, c.Request)
	})
}

func startSpan(ctx context.Context, c *gin.Context, p o11y.Provider, route string) (context.Context, o11y.Span) {
	name := fmt.Sprintf("%s %s", c.Request.Method, route)
	kind := o11y.WithSpanKind(o11y.SpanKindServer)

	if p.GetSpan(ctx) != nil {
		return p.StartSpan(ctx, name, kind)
	}

	ctx, span := p.Helpers().InjectPropagation(ctx, o11y.PropagationContextFromHeader(c.Request.Header), kind)
	span.AddRawField("name", name)
	return ctx, span
}
