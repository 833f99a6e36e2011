package rulelang

import (
	"fmt"
	"os"
	"path/filepath"
)

// ImportError reports that an imported path could not be resolved through
// any of the candidate locations tried: the path itself when absolute,
// otherwise up to three (working directory, importing directory, builtin
// data directory).
type ImportError struct {
	Path       string
	Candidates []string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("rulelang: cannot resolve import %q, tried: %v", e.Path, e.Candidates)
}

// ResolveImportPath finds path by trying, in order: as an absolute path;
// relative to the current working directory; relative to importingDir
// (the directory of the rule file doing the importing); and relative to
// builtinDataDir, a data directory shipped with the engine.
func ResolveImportPath(path, importingDir, builtinDataDir string) (string, error) {
	candidates := make([]string, 0, 4)
	if filepath.IsAbs(path) {
		candidates = append(candidates, path)
	} else {
		if cwd, err := os.Getwd(); err == nil {
			candidates = append(candidates, filepath.Join(cwd, path))
		}
		if importingDir != "" {
			candidates = append(candidates, filepath.Join(importingDir, path))
		}
		if builtinDataDir != "" {
			candidates = append(candidates, filepath.Join(builtinDataDir, path))
		}
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", &ImportError{Path: path, Candidates: candidates}
}
