package source

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for uri, expected := range map[string]Location{
		"-":                            {Scheme: "stdin"},
		"shipments.csv":                {Scheme: "file", Path: "shipments.csv"},
		"file:///tmp/shipments.csv":    {Scheme: "file", Path: "/tmp/shipments.csv"},
		"gs://bucket/in/shipments.csv": {Scheme: "gs", Bucket: "bucket", Path: "in/shipments.csv"},
		"s3://bucket/overrides.json":   {Scheme: "s3", Bucket: "bucket", Path: "overrides.json"},
	} {
		location, err := Parse(uri)
		require.NoError(t, err, uri)
		assert.Equal(t, expected, location, uri)
	}

	for _, uri := range []string{"", "gs://bucket", "s3:///key", "gs://bucket/"} {
		_, err := Parse(uri)
		assert.Error(t, err, uri)
	}
}

func TestOpenLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipments.csv")
	require.NoError(t, os.WriteFile(path, []byte("mode\nair\n"), 0o600))

	opener := NewOpener(WithStdin(strings.NewReader("from stdin")))

	f, err := opener.Open(t.Context(), path)
	require.NoError(t, err)
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "mode\nair\n", string(content))
	require.NoError(t, f.Close())

	stdin, err := opener.Open(t.Context(), "-")
	require.NoError(t, err)
	content, err = io.ReadAll(stdin)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", string(content))

	_, err = opener.Open(t.Context(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
