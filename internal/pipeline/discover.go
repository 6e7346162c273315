package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Video file extensions accepted by Discover (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".m4v":  true,
	".webm": true,
	".mpg":  true,
	".mpeg": true,
	".wmv":  true,
	".ogv":  true,
}

// Discover walks dir, collects video files, prunes hidden directories and
// returns absolute paths sorted lexicographically so that frame counts and
// read order are the same on every run.
func Discover(dir string) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if videoExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
