package rtfmt

import (
	"fmt"
	"io"
)

// WriteErrHandler receives errors from writes that would otherwise be discarded.
type WriteErrHandler func(err error)

// LogHandler adapts a printf-style logger into a WriteErrHandler.
func LogHandler(logf func(format string, args ...interface{}), format string) WriteErrHandler {
	if logf == nil {
		return nil
	}
	return func(err error) {
		logf(format, err)
	}
}

func Fprintf(w io.Writer, format string, handler WriteErrHandler, args ...interface{}) error {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil && handler != nil {
		handler(err)
	}
	return err
}

func Fprintln(w io.Writer, handler WriteErrHandler, args ...interface{}) error {
	_, err := fmt.Fprintln(w, args...)
	if err != nil && handler != nil {
		handler(err)
	}
	return err
}
