// Package dataset reads Turtle files into N-Triples statements ready to be
// sent inside an INSERT DATA update.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knakk/rdf"
)

// ErrMalformedDataset indicates a dataset file could not be parsed.
var ErrMalformedDataset = errors.New("malformed dataset")

// Dataset is the materialized content of a dataset file: one N-Triples
// statement (terminated by " .") per triple, in file order.
type Dataset struct {
	Statements []string
}

// Len returns the number of triples in the dataset.
func (d *Dataset) Len() int {
	return len(d.Statements)
}

// Load parses the Turtle file at path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}

	return ds, nil
}

// Parse decodes Turtle from r. Blank node labels written in the source are
// renamed so they cannot collide with the labels the decoder assigns to
// anonymous nodes.
func Parse(r io.Reader) (*Dataset, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	dec := rdf.NewTripleDecoder(strings.NewReader(relabelBlankNodes(string(src))), rdf.Turtle)

	triples, err := dec.DecodeAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDataset, err)
	}

	statements := make([]string, len(triples))
	for i, t := range triples {
		statements[i] = Statement(t)
	}

	return &Dataset{Statements: statements}, nil
}

// Statement serializes a triple as one N-Triples statement.
func Statement(t rdf.Triple) string {
	return t.Subj.Serialize(rdf.NTriples) + " " +
		t.Pred.Serialize(rdf.NTriples) + " " +
		t.Obj.Serialize(rdf.NTriples) + " ."
}
