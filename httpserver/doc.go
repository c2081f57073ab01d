// Package httpserver runs an http.Server on a bound listener, shutting it down gracefully when
// its context is cancelled.
package httpserver
