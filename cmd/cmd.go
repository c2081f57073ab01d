// Package cmd holds build information set at link time, eg.
//
//	go build -ldflags "-X github.com/circleci/sample-app/cmd.Version=1.2.3" ./cmd/api
package cmd

var (
	Version = "dev"
	Date    = "unknown"
)
