package o11ygin

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/circleci/sample-app/o11y"
)

type requestVals struct {
	Req      *http.Request
	Route    string
	ClientIP string
}

func semconvServerRequest(span o11y.Span, v requestVals) {
	as := map[attribute.Key]any{
		semconv.HTTPMethodKey:               v.Req.Method,
		semconv.HTTPTargetKey:               v.Req.URL.Path,
		semconv.HTTPRouteKey:                v.Route,
		semconv.HTTPRequestContentLengthKey: v.Req.ContentLength,
	}

	setString(as, semconv.HTTPSchemeKey, v.Req.URL.Scheme)
	setString(as, semconv.HTTPClientIPKey, v.ClientIP)
	setString(as, semconv.HTTPUserAgentKey, v.Req.UserAgent())
	setString(as, semconv.NetHostNameKey, v.Req.Host)

	for k, v := range as {
		span.AddRawField(string(k), v)
	}
}

func semconvServerResponse(span o11y.Span, status, size int) {
	span.AddRawField(string(semconv.HTTPStatusCodeKey), status)
	span.AddRawField(string(semconv.HTTPResponseContentLengthKey), size)
}

func setString(as map[attribute.Key]any, k attribute.Key, v string) {
	if v != "" {
		as[k] = v
	}
}
