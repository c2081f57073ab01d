// Package secret holds sensitive configuration values so they are not accidentally logged.
package secret

import (
	"database/sql/driver"
	"net/url"
)

type String string

const redacted = "REDACTED"

// String implements fmt.Stringer and redacts the sensitive value.
func (s String) String() string {
	return redacted
}

// GoString implements fmt.GoStringer and redacts the sensitive value.
func (s String) GoString() string {
	return redacted
}

// Raw returns the sensitive value as a string.
func (s String) Raw() string {
	return string(s)
}

// Value returns the sensitive value for database driver use.
func (s String) Value() (driver.Value, error) {
	return string(s), nil
}

func (s String) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// RedactURL returns the value parsed as a URL with any password removed, for logging connection
// strings. If the value does not parse as a URL it is fully redacted.
func (s String) RedactURL() string {
	u, err := url.Parse(string(s))
	if err != nil || u.Scheme == "" {
		return redacted
	}
	return u.Redacted()
}
