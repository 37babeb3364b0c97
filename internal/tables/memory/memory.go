// Package memory is the in-process tables backend, used by default and in
// tests. Tables can be seeded from tab-separated files in a data directory.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"lifeplan/internal/tables"
)

type Store struct {
	mu   sync.Mutex
	data map[string]*tables.Table
}

func New() *Store {
	s := &Store{data: make(map[string]*tables.Table)}
	for _, name := range tables.Names() {
		s.data[name] = tables.New(name)
	}
	return s
}

// NewFromFiles seeds a store from <base>/<TABLE_NAME>.tsv files. Missing files
// leave the table empty with its canonical header.
func NewFromFiles(base string) *Store {
	s := New()
	for _, name := range tables.Names() {
		t := readTSV(filepath.Join(base, name+".tsv"))
		if t != nil {
			s.data[name] = t
		}
	}
	return s
}

func (s *Store) ReadTable(_ context.Context, name string) (*tables.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", name)
	}
	return copyTable(t), nil
}

func (s *Store) WriteTable(_ context.Context, name string, t *tables.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[name]; !ok {
		return fmt.Errorf("unknown table %q", name)
	}
	s.data[name] = copyTable(t)
	return nil
}

func copyTable(t *tables.Table) *tables.Table {
	out := &tables.Table{Header: append([]string(nil), t.Header...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

func readTSV(path string) *tables.Table {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var t tables.Table
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cells := strings.Split(line, "\t")
		if t.Header == nil {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	if t.Header == nil {
		return nil
	}
	return &t
}
