package migration

import "sort"

// Sort returns a new slice of migrations ordered by Order, then Filename,
// then Path, so the result is the same whatever order the filesystem
// listed them in.
func Sort(migrations []Migration) []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]

		if a.Order != b.Order {
			return a.Order < b.Order
		}

		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}

		return a.Path < b.Path
	})

	return sorted
}
