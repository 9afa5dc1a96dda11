// Package projectconfig loads per-project PIXL configuration: the tag
// scheme the anonymisation engine applies, the modalities/series the
// anonymisation handler (internal/anoncallback) lets through, and the
// export destination. Files are
// YAML, one per project slug, parsed with gopkg.in/yaml.v3 — the teacher
// repo has no config-file library of its own, so this follows the wider
// pack's convention of yaml.v3 for structured config.
package projectconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/UCLH-Foundry/PIXL/internal/anonymise"
	"github.com/UCLH-Foundry/PIXL/internal/registry"
)

// Destination describes where a project's export lands (spec §6).
type Destination struct {
	Kind string `yaml:"kind"` // "ftps" | "dicomweb" | "xnat"
	Host string `yaml:"host"`
	Path string `yaml:"path"`
}

// Project is the full configuration for one research project, keyed by
// project_name in the file on disk but addressed internally by its slug.
type Project struct {
	ProjectName        string             `yaml:"project_name"`
	TagScheme          anonymise.Scheme   `yaml:"tag_scheme"`
	AllowedModalities  []string           `yaml:"allowed_modalities"`
	ExcludedSeriesRegex string            `yaml:"excluded_series_regex"`
	TimeShiftHours     int                `yaml:"time_shift_hours"`
	Destination        Destination        `yaml:"destination"`
	PrivateTagGroup    uint16             `yaml:"private_tag_group"`
	PrivateTagCreator  string             `yaml:"private_tag_creator"`
}

// Slug returns the registry.ProjectSlug this configuration applies to.
func (p Project) Slug() registry.ProjectSlug {
	return registry.SlugifyProject(p.ProjectName)
}

// Store resolves project configuration files under a root directory, one
// YAML file per project (named <slug>.yaml).
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load reads and parses the configuration file for the given project slug.
func (s *Store) Load(slug registry.ProjectSlug) (Project, error) {
	path := filepath.Join(s.dir, string(slug)+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return Project{}, fmt.Errorf("projectconfig: reading %s: %w", path, err)
	}

	var p Project
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Project{}, fmt.Errorf("projectconfig: parsing %s: %w", path, err)
	}
	if p.PrivateTagCreator == "" {
		p.PrivateTagCreator = "UCLH PIXL"
	}
	if p.PrivateTagGroup == 0 {
		p.PrivateTagGroup = 0x000B
	}
	return p, nil
}
