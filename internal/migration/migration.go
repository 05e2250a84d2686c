package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Recognized migration file extensions.
const (
	StatementExt = ".sparql"
	DatasetExt   = ".ttl"
	SidecarExt   = ".graph"
)

// Kind selects how a migration is applied.
type Kind int

const (
	// KindUnsupported is a file with an extension the engine cannot apply.
	KindUnsupported Kind = iota
	// KindStatement is a SPARQL update sent as a single request.
	KindStatement
	// KindDataset is a Turtle file bulk-loaded into a graph.
	KindDataset
)

// String returns the lowercase label of the kind.
func (k Kind) String() string {
	switch k {
	case KindStatement:
		return "statement"
	case KindDataset:
		return "dataset"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// orderPattern finds the first run of decimal digits in a filename.
var orderPattern = regexp.MustCompile(`\d+`) //nolint:gochecknoglobals // compiled once

// Migration is a single migration file discovered on disk. All fields are
// computed once at discovery.
type Migration struct {
	Path     string // absolute path of the file
	Filename string // basename, the ledger identity
	Order    int    // first digit run of Filename, 0 when none
	Kind     Kind
}

// New builds a Migration for the file at path.
func New(path string) (Migration, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Migration{}, fmt.Errorf("resolving migration path %s: %w", path, err)
	}

	name := filepath.Base(abs)

	return Migration{
		Path:     abs,
		Filename: name,
		Order:    OrderOf(name),
		Kind:     KindOf(name),
	}, nil
}

// OrderOf returns the integer value of the first run of digits in filename,
// or 0 when filename has no digits. Runs too large for an int also yield 0.
func OrderOf(filename string) int {
	digits := orderPattern.FindString(filename)
	if digits == "" {
		return 0
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}

	return n
}

// KindOf classifies filename by its extension.
func KindOf(filename string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case StatementExt:
		return KindStatement
	case DatasetExt:
		return KindDataset
	default:
		return KindUnsupported
	}
}

// URI is the identifier of the migration's ledger record.
func (m *Migration) URI() string {
	return "file://" + filepath.ToSlash(m.Path)
}

// Content returns the full text of the migration file.
func (m *Migration) Content() (string, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return "", fmt.Errorf("reading migration file %s: %w", m.Path, err)
	}

	return string(data), nil
}

// SidecarPath is the path of the optional file naming the target graph of a
// dataset migration: the migration path with its extension replaced by ".graph".
func (m *Migration) SidecarPath() string {
	return strings.TrimSuffix(m.Path, filepath.Ext(m.Path)) + SidecarExt
}

// TargetGraph returns the graph a dataset migration loads into: the first
// non-empty line of the sidecar file, or defaultGraph when there is none.
func (m *Migration) TargetGraph(defaultGraph string) (string, error) {
	data, err := os.ReadFile(m.SidecarPath())
	if err != nil {
		if os.IsNotExist(err) {
			return defaultGraph, nil
		}

		return "", fmt.Errorf("reading graph file %s: %w", m.SidecarPath(), err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if g := strings.TrimSpace(line); g != "" {
			return g, nil
		}
	}

	return defaultGraph, nil
}
