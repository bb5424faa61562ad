package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/golang-migrate/migrate/v4/source"
)

// versionWidth matches the zero padded prefix of the files in migrations/
const versionWidth = 6

var fileTemplate = template.Must(template.New("migration").Parse(
	`-- Migration: {{.Name}}{{if .Rollback}} (Rollback){{end}}
-- Created: {{.Timestamp}}
{{- if not .Rollback}}
-- Description: {{.Description}}

-- Amounts are stored as BIGINT cents, calendar dates as DATE.
{{- end}}

`))

// MigrationFile describes a freshly created up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next numbered up/down pair into dir. Neither
// file is left behind if the pair cannot be written in full.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	next, err := NextVersion(dir)
	if err != nil {
		return nil, err
	}
	version := fmt.Sprintf("%0*d", versionWidth, next)
	base := filepath.Join(dir, version+"_"+slug)

	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
		UpPath:      base + ".up.sql",
		DownPath:    base + ".down.sql",
	}
	if err := mf.write(mf.UpPath, false); err != nil {
		return nil, err
	}
	if err := mf.write(mf.DownPath, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func (mf *MigrationFile) write(path string, rollback bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	data := struct {
		*MigrationFile
		Rollback bool
	}{mf, rollback}
	if err := fileTemplate.Execute(f, data); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// sanitizeName lowercases name and joins its words with underscores.
// Spaces, dashes and underscores separate words; anything else that is
// not a letter or digit is dropped.
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	kept := words[:0]
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, "_")
}

// scan parses every up migration in dir with the same file name rules
// golang-migrate applies when it reads the directory
func scan(dir string) ([]*source.Migration, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var ups []*source.Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m, err := source.Parse(entry.Name())
		if err != nil || m.Direction != source.Up {
			continue
		}
		ups = append(ups, m)
	}
	slices.SortFunc(ups, func(a, b *source.Migration) int {
		return int(a.Version) - int(b.Version)
	})
	return ups, nil
}

// ListMigrations returns the base names of the migrations in dir, ordered
// by version
func ListMigrations(dir string) ([]string, error) {
	ups, err := scan(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ups))
	for _, m := range ups {
		names = append(names, fmt.Sprintf("%0*d_%s", versionWidth, m.Version, m.Identifier))
	}
	return names, nil
}

// NextVersion returns the version the next migration in dir gets
func NextVersion(dir string) (int, error) {
	ups, err := scan(dir)
	if err != nil {
		return 0, err
	}
	if len(ups) == 0 {
		return 1, nil
	}
	return int(ups[len(ups)-1].Version) + 1, nil
}
