package console

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	cfg := Config{Command: "bin/rails console", WorkingDir: "/srv/app"}
	err := fmt.Errorf("connect: %w", spawnError(cfg, io.EOF))

	assert.True(t, errors.Is(err, ErrSpawn))
	assert.False(t, errors.Is(err, ErrNotReady))
	assert.True(t, errors.Is(err, io.EOF))
	assert.Equal(t, KindSpawn, KindOf(err))
	assert.Contains(t, HintOf(err), `"bin/rails console"`)
	assert.Contains(t, HintOf(err), `"/srv/app"`)
	assert.Equal(t, "connect: start: SpawnError: EOF", err.Error())
}

func TestErrorHelpersOnPlainErrors(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(io.EOF))
	assert.Equal(t, "", HintOf(io.EOF))
	assert.Equal(t, KindNone, KindOf(nil))
}

func TestNotReadyError(t *testing.T) {
	err := notReadyError(Config{Command: "irb", WorkingDir: "/tmp"})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, "execute: NotReady: console session is not running", err.Error())
}
