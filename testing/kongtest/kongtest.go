// Package kongtest parses kong CLI structs in tests without exiting the test binary.
package kongtest

import (
	"bytes"
	"testing"

	"github.com/alecthomas/kong"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

// Help renders the --help output for cli.
func Help(t *testing.T, cli interface{}) string {
	t.Helper()

	w := bytes.NewBuffer(nil)
	rc := -1
	app := newApp(t, cli, w, &rc)

	_, err := app.Parse([]string{"--help"})
	assert.Check(t, err)
	assert.Check(t, cmp.Equal(0, rc))

	return w.String()
}

// Parse fills cli from args and the environment, applying defaults.
func Parse(t *testing.T, cli interface{}, args ...string) {
	t.Helper()

	w := bytes.NewBuffer(nil)
	rc := -1
	app := newApp(t, cli, w, &rc)

	_, err := app.Parse(args)
	assert.NilError(t, err)
	assert.Check(t, cmp.Equal(-1, rc), w.String())
}

func newApp(t *testing.T, cli interface{}, w *bytes.Buffer, rc *int) *kong.Kong {
	t.Helper()

	app, err := kong.New(cli,
		kong.Name("test-app"),
		kong.Writers(w, w),
		kong.Exit(func(i int) {
			*rc = i
		}),
	)
	assert.NilError(t, err)
	return app
}
