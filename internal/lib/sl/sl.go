// Package sl holds small helpers for log/slog attributes.
package sl

import "log/slog"

// Err returns an "error" attribute with the error text.
//
//	log.Error("failed to delete image", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
