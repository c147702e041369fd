package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vsinha/shelfwatch/pkg/application/services/snapshot"
)

// Extensions are tried in order when looking up a table file
var Extensions = []string{".xlsx", ".csv"}

// FindTableFile returns the path of <dir>/<table>.<ext>, or "" when none exists
func FindTableFile(dir, table string) (string, error) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, table+ext)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return "", nil
}

// LoadDir loads a scenario directory holding movements.*, validity.* and
// suppliers.* files plus an optional timeline.* extract
func (l *Loader) LoadDir(dir string) (snapshot.Tables, error) {
	var tables snapshot.Tables

	targets := []struct {
		name     string
		dst      **snapshot.Table
		optional bool
	}{
		{name: snapshot.TableMovements, dst: &tables.Movements},
		{name: snapshot.TableValidity, dst: &tables.Validity},
		{name: snapshot.TableSuppliers, dst: &tables.Suppliers},
		{name: snapshot.TableTimeline, dst: &tables.Timeline, optional: true},
	}

	for _, target := range targets {
		path, err := FindTableFile(dir, target.name)
		if err != nil {
			return snapshot.Tables{}, err
		}
		if path == "" {
			if target.optional {
				l.logger.Debug("optional table not present", zap.String("table", target.name), zap.String("dir", dir))
				continue
			}
			return snapshot.Tables{}, fmt.Errorf("scenario %s has no %s file (tried %v)", dir, target.name, Extensions)
		}

		table, err := l.Load(target.name, path)
		if err != nil {
			return snapshot.Tables{}, err
		}
		*target.dst = table
	}

	l.logger.Info("scenario loaded",
		zap.String("dir", dir),
		zap.Int("movements", tables.Movements.Len()),
		zap.Int("validity", tables.Validity.Len()),
		zap.Int("suppliers", tables.Suppliers.Len()),
		zap.Bool("timeline", tables.Timeline != nil),
	)
	return tables, nil
}
