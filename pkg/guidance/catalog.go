package guidance

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Catalog is the ordered list of class labels. Line order defines class_id.
// It is immutable after loading and safe for concurrent reads.
type Catalog struct {
	labels []string
}

// NewCatalog builds a catalog from labels.
func NewCatalog(labels ...string) (*Catalog, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Catalog{labels: append([]string(nil), labels...)}, nil
}

// LoadCatalog reads a class file with one label per line.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CatalogLoadError(path, err)
	}
	defer f.Close()

	c, err := ParseCatalog(f)
	if err != nil {
		return nil, CatalogLoadError(path, err)
	}
	return c, nil
}

// ParseCatalog reads labels from r. Interior blank lines keep their slot
// so later ids stay aligned with the model; trailing blank lines are dropped.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var labels []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read class list: %w", err)
	}

	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	if len(labels) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Catalog{labels: labels}, nil
}

// Len returns the number of classes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.labels)
}

// Label returns the label for id, or "" when id is out of range.
func (c *Catalog) Label(id int) string {
	if c == nil || id < 0 || id >= len(c.labels) {
		return ""
	}
	return c.labels[id]
}

// Labels returns a copy of all labels.
func (c *Catalog) Labels() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.labels...)
}
