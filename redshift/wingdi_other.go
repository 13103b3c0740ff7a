//go:build !windows

package redshift

import (
	"errors"
	"log/slog"
)

// NewWinGDI is only supported on Windows.
func NewWinGDI(logger *slog.Logger) (Manager, <-chan error, error) {
	return nil, nil, errors.ErrUnsupported
}
