package page

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
)

// FindDefinitions returns the pathnames of every page below pagesRoot in walk
// order. Hidden directories are skipped.
func FindDefinitions(pagesRoot string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(pagesRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != pagesRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != DefinitionFile {
			return nil
		}
		if pathname, ok := PathnameOf(pagesRoot, path); ok {
			out = append(out, pathname)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, foundationerrors.NotFoundError("pages directory does not exist").
				WithContext("path", pagesRoot).
				WithCause(err).
				Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "walk pages").Build()
	}
	return out, nil
}
