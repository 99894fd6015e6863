package hp_test

import (
	"testing/fstest"
	"time"
)

// templateFS builds an in-memory template directory from file names and
// contents.
func templateFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, contents := range files {
		fsys[name] = &fstest.MapFile{
			Data:    []byte(contents),
			Mode:    0o444,
			ModTime: time.Now(),
		}
	}
	return fsys
}
