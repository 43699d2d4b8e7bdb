// file: internal/logger/logger.go
// version: 1.0.0
// guid: 2d9b8c1e-6f4a-4a3b-8e7d-5c0f1e2a3b4c

package logger

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// New creates the root logger. Unknown levels fall back to info.
func New(level string, w io.Writer) hclog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "mbseries",
		Level:  lvl,
		Output: w,
	})
}
