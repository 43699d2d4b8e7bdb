// file: internal/logger/logger_test.go
// version: 1.0.0
// guid: 8e1c4b7a-3d2f-4f6e-9a0b-1c2d3e4f5a6b

package logger

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", &buf)

	log.Info("hidden")
	log.Warn("shown", "album", "A")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "album=A")
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	log := New("chatty", &bytes.Buffer{})
	assert.Equal(t, hclog.Info, log.GetLevel())
}

func TestNewNilWriter(t *testing.T) {
	assert.NotNil(t, New("info", nil))
}
