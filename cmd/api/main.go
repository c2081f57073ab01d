package main

import (
	"context"
	"errors"
	"log" //nolint:depguard // non-o11y log is allowed for a top-level fatal
	"net"
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/circleci/sample-app/api"
	"github.com/circleci/sample-app/cmd"
	"github.com/circleci/sample-app/cmd/setup"
	"github.com/circleci/sample-app/httpserver"
	"github.com/circleci/sample-app/httpserver/healthcheck"
	"github.com/circleci/sample-app/o11y"
	"github.com/circleci/sample-app/system"
	"github.com/circleci/sample-app/termination"
	"github.com/circleci/sample-app/users"
)

type cli struct {
	setup.CLI

	ShutdownDelay time.Duration `env:"SHUTDOWN_DELAY" default:"5s" help:"Delay shutdown by this amount" hidden:""`
	Port          int           `env:"PORT" default:"3000" help:"The port for the API to listen on"`
}

func (c cli) apiAddr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

func main() {
	err := run(cmd.Version, cmd.Date)
	if err != nil && !errors.Is(err, termination.ErrTerminated) {
		log.Fatal("Unexpected Error: ", err)
	}
	log.Println("exited 0")
}

func run(version, date string) (err error) {
	cli := cli{}
	kong.Parse(&cli,
		kong.Name("sample-app-api"),
		kong.Description("Serves the health check and user listing API."),
	)

	ctx, o11yCleanup, err := setup.LoadO11y(version, "api", cli.CLI)
	if err != nil {
		return err
	}
	defer o11yCleanup(context.Background())

	ctx, runSpan := o11y.StartSpan(ctx, "main: run")
	defer o11y.End(runSpan, &err)

	o11y.Log(ctx, "starting api",
		o11y.Field("version", version),
		o11y.Field("date", date),
	)

	sys := system.New(ctx)
	defer sys.Cleanup(context.Background())

	err = loadAPI(ctx, cli, sys)
	if err != nil {
		return err
	}

	// Should be last so it collects all the health checks
	_, err = healthcheck.Load(ctx, cli.AdminAddr, sys)
	if err != nil {
		return err
	}

	return sys.Run(cli.ShutdownDelay)
}

func loadAPI(ctx context.Context, cli cli, sys *system.System) error {
	q, err := setup.LoadDB(ctx, cli.CLI, sys)
	if err != nil {
		return err
	}

	a := api.New(ctx, api.Options{
		Store: users.NewStore(q),
	})

	srv, err := httpserver.Load(ctx, httpserver.Config{
		Name:    "api",
		Addr:    cli.apiAddr(),
		Handler: a.Handler(),
	}, sys)
	if err != nil {
		return err
	}

	o11y.Log(ctx, "api: listening", o11y.Field("address", srv.Addr()))
	return nil
}
