package logger

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncWriterFansOut(t *testing.T) {
	var a, b bytes.Buffer
	w := newAsyncWriter([]io.Writer{&a, nil, &b}, 16)

	require.NoError(t, w.Write([]byte("one\n")))
	require.NoError(t, w.Write([]byte("two\n")))
	require.NoError(t, w.Flush())
	assert.Equal(t, "one\ntwo\n", a.String())
	assert.Equal(t, "one\ntwo\n", b.String())

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write([]byte("late\n")), errWriterClosed)
	assert.NoError(t, w.Flush())
	assert.Zero(t, w.Dropped())
}
