package soiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b.jpg",
		"a.PNG",
		"notes.txt",
		filepath.Join("bird_drop", "c.jpeg"),
		filepath.Join("dust", "d.JPG"),
		filepath.Join("dust", "e.gif"),
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	got, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "bird_drop", "c.jpeg"),
		filepath.Join(dir, "dust", "d.JPG"),
	}, got)

	_, err = ListImages(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFileInputs(t *testing.T) {
	in := FileInputs([]string{"x.jpg", "y.png"})
	require.Len(t, in, 2)
	assert.Equal(t, FilePath("y.png"), in[1])
}
