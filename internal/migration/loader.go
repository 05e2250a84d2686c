package migration

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// Discover walks root recursively and returns every statement and dataset
// migration found, sorted by Sort. Files with other extensions (including
// ".graph" sidecars) are skipped.
func Discover(root string) ([]Migration, error) {
	var migrations []Migration

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || KindOf(d.Name()) == KindUnsupported {
			return nil
		}

		m, err := New(path)
		if err != nil {
			return err
		}

		migrations = append(migrations, m)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", root, err)
	}

	return Sort(migrations), nil
}

// Duplicates returns the filenames shared by more than one migration, mapped
// to the paths using them. The ledger identifies migrations by filename, so
// such files cannot be told apart once one of them is recorded.
func Duplicates(migrations []Migration) map[string][]string {
	paths := make(map[string][]string)

	for _, m := range migrations {
		paths[m.Filename] = append(paths[m.Filename], m.Path)
	}

	for name, ps := range paths {
		if len(ps) < 2 { //nolint:mnd // a duplicate needs two paths
			delete(paths, name)
		}
	}

	return paths
}
