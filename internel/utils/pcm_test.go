package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCMRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcm")
	want := []int32{0, 1, -1, 1 << 30, -(1 << 30), 0x7fffffff}
	require.NoError(t, WritePCM(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 4*len(want), info.Size())

	got, err := ReadPCM[int32](path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPCMWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcm")
	w, err := CreatePCM[int32](path)
	require.NoError(t, err)
	require.NoError(t, w.Write([]int32{1, 2}))
	require.NoError(t, w.Write([]int32{3}))
	assert.Equal(t, 3, w.Samples())
	require.NoError(t, w.Close())

	got, err := ReadPCM[int32](path)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, got)
}

func TestReadPCMOddSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.pcm")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0644))
	_, err := ReadPCM[int32](path)
	assert.Error(t, err)

	_, err = ReadPCM[int32](filepath.Join(t.TempDir(), "absent.pcm"))
	assert.Error(t, err)
}
