// Package profile manages per-user profiles: a named directory holding the
// profile's configuration, its run-state database and its generated reports.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
)

const maxNameLen = 29

// Profile is a loaded user profile.
type Profile struct {
	Name   string
	Dir    string
	Config Config
}

// Load opens the named profile under profilesDir, creating its directory
// skeleton on first use. A config.yaml inside the profile dir overrides the
// built-in default configuration.
func Load(profilesDir, name string) (*Profile, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("invalid profile name %q", name)
	}
	dir := filepath.Join(profilesDir, name)
	cfg, err := loadConfig(filepath.Join(dir, "config.yaml"))
	if err != nil {
		return nil, err
	}
	p := &Profile{Name: name, Dir: dir, Config: cfg}
	for _, d := range []string{p.DataDir(), p.OutputDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("creating profile dir %s: %w", d, err)
		}
	}
	return p, nil
}

// ValidName reports whether name is acceptable as a profile name: letters,
// digits and "-_.,()", between 1 and 29 characters.
func ValidName(name string) bool {
	if len(name) == 0 || len(name) > maxNameLen {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == ',' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return true
}

// DataDir is where the profile keeps its run-state database.
func (p *Profile) DataDir() string {
	return filepath.Join(p.Dir, "data")
}

// DatabasePath is the profile's sqlite database file.
func (p *Profile) DatabasePath() string {
	return filepath.Join(p.DataDir(), p.Config.Data.DatabaseFile)
}

// OutputDir is where the profile's reports land.
func (p *Profile) OutputDir() string {
	return filepath.Join(p.Dir, p.Config.Output.Dir)
}
