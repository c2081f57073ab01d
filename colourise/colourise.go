// Package colourise adorns console output with ANSI colours.
package colourise

import (
	"fmt"
	"hash/crc32"
)

// palette holds the 256-colour codes that read well on a dark terminal
var palette = []uint8{
	9, 10, 11, 12, 13, 14, 27, 28, 33, 39, 45, 51, 63, 69, 75, 81, 87, 99, 105, 111, 117, 123,
	129, 135, 141, 147, 153, 159, 165, 171, 177, 183, 189, 195, 201, 207, 213, 219, 225, 226,
}

// Hashed colours value with a palette entry picked from a hash of the value, so the same
// trace id or span name always gets the same colour across runs.
func Hashed(value string) string {
	i := crc32.Checksum([]byte(value), crc32.IEEETable) % uint32(len(palette))
	return fmt.Sprintf("\033[1;38;5;%dm%s\033[0m", palette[i], value)
}

// Error renders s white on red.
func Error(s string) string {
	return fmt.Sprintf("\033[1;37;41m%s\033[0m", s)
}
