package entities

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrSpecNotFound is returned when no shelf-life specification exists for a material
var ErrSpecNotFound = errors.New("no shelf life registered")

// IngestError reports why a snapshot could not be loaded
type IngestError struct {
	MissingColumns map[string][]string
	Problems       []string
}

// Error implements error
func (e *IngestError) Error() string {
	var parts []string

	tables := make([]string, 0, len(e.MissingColumns))
	for table := range e.MissingColumns {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		parts = append(parts, fmt.Sprintf("table %s missing columns: %s", table, strings.Join(e.MissingColumns[table], ", ")))
	}

	if n := len(e.Problems); n > 0 {
		parts = append(parts, fmt.Sprintf("%d invalid cells, first: %s", n, e.Problems[0]))
	}

	if len(parts) == 0 {
		return "ingest failed"
	}
	return "ingest failed: " + strings.Join(parts, "; ")
}

// HasIssues reports whether anything was collected
func (e *IngestError) HasIssues() bool {
	return len(e.MissingColumns) > 0 || len(e.Problems) > 0
}

// AddMissing records a missing column on a table
func (e *IngestError) AddMissing(table, column string) {
	if e.MissingColumns == nil {
		e.MissingColumns = make(map[string][]string)
	}
	e.MissingColumns[table] = append(e.MissingColumns[table], column)
}

// AddProblem records an invalid cell or row
func (e *IngestError) AddProblem(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// MissingReferenceDateError is returned when a record has neither manufacture nor entry date
type MissingReferenceDateError struct {
	Key RecordKey
}

// Error implements error
func (e *MissingReferenceDateError) Error() string {
	return fmt.Sprintf("record %s has no manufacture or entry date", e.Key)
}

// AmbiguousSpecError is returned when the most recent specifications disagree
type AmbiguousSpecError struct {
	Material  MaterialCode
	AddedAt   *time.Time
	Suppliers []string
	Days      []int
}

// Error implements error
func (e *AmbiguousSpecError) Error() string {
	added := "undated"
	if e.AddedAt != nil {
		added = "added " + e.AddedAt.Format(DateLayout)
	}
	return fmt.Sprintf("material %s has conflicting shelf lives (%s): suppliers %v declare %v days",
		e.Material, added, e.Suppliers, e.Days)
}

// AuditJoinError signals a join key that belongs to neither source
type AuditJoinError struct {
	Key LotKey
}

// Error implements error
func (e *AuditJoinError) Error() string {
	return fmt.Sprintf("audit join key %s matches neither movement nor validity records", e.Key)
}
