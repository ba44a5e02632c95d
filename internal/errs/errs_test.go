package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIOErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("merging: %w", IO("read", "out.nc.0001", fs.ErrNotExist))

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrSchemaConflict)

	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "out.nc.0001", ioErr.Path)
	assert.Contains(t, err.Error(), "read out.nc.0001")
}

func TestIOKeepsClassifiedErrors(t *testing.T) {
	assert.NoError(t, IO("read", "x", nil))

	conflict := fmt.Errorf("tile 2: %w", ErrSchemaConflict)
	assert.Same(t, conflict, IO("read", "x", conflict))

	assert.True(t, Classified(conflict))
	assert.False(t, Classified(errors.New("plain")))
}
