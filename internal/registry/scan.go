package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"completiond/internal/common/fsutil"
	"completiond/pkg/types"
)

// ScanGGUF lists *.gguf files in dir (case-insensitive, non-recursive).
// ID is the full filename; Path is the absolute file path.
func ScanGGUF(dir string) ([]types.Model, error) {
	abs, err := fsutil.ResolvePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		models = append(models, types.Model{
			ID:     name,
			Source: "llama",
			Task:   "text-generation",
			Path:   filepath.Join(abs, name),
		})
	}
	return models, nil
}
