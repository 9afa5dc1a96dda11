package exporter

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArchive_PackagesEveryInstance(t *testing.T) {
	dir := t.TempDir()
	path1 := filepath.Join(dir, "instance-1.dcm")
	path2 := filepath.Join(dir, "instance-2.dcm")
	require.NoError(t, os.WriteFile(path1, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(path2, []byte("two"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, BuildArchive(&buf, []string{path1, path2}))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	names := []string{zr.File[0].Name, zr.File[1].Name}
	assert.Contains(t, names, "instance-1.dcm")
	assert.Contains(t, names, "instance-2.dcm")
}

func TestBuildArchive_MissingFileErrors(t *testing.T) {
	var buf bytes.Buffer
	err := BuildArchive(&buf, []string{"/nonexistent/instance.dcm"})
	require.Error(t, err)
}
