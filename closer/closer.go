// Package closer keeps errors from deferred Close calls that would otherwise be dropped.
package closer

import "io"

// ErrorHandler closes c and stores the close error in err unless err already holds one.
// Use it with a named error return:
//
//	defer closer.ErrorHandler(rows, &err)
func ErrorHandler(c io.Closer, err *error) {
	cerr := c.Close()
	if *err == nil {
		*err = cerr
	}
}
