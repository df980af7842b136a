package soiling

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ListImages walks dir recursively and returns the sorted paths of JPEG and
// PNG files. Sub-folders (e.g. one per soiling type) are included.
func ListImages(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if imageExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing images in %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// FileInputs wraps paths as ImageInputs.
func FileInputs(paths []string) []ImageInput {
	out := make([]ImageInput, len(paths))
	for i, p := range paths {
		out[i] = FilePath(p)
	}
	return out
}
