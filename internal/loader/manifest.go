// Package loader ingests the per-pipeline-run TSV dumps into the bulk
// tables, and seeds curation candidates for newly classified proteins.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest names the TSV file for each table of one pipeline run. Paths are
// relative to the manifest's directory unless absolute. Any table may be
// omitted; omitted tables are left untouched.
type Manifest struct {
	Organisms                string `yaml:"organisms"`
	Proteins                 string `yaml:"proteins"`
	Domains                  string `yaml:"domains"`
	DomainPfamHits           string `yaml:"domain_pfam_hits"`
	Tier1Members             string `yaml:"tier1_members"`
	Tier2Members             string `yaml:"tier2_members"`
	CrossTierHits            string `yaml:"cross_tier_hits"`
	StructuralClusterMembers string `yaml:"structural_cluster_members"`
	CurationCandidates       string `yaml:"curation_candidates"`

	dir string
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// resolve turns a manifest entry into an absolute path.
func (m *Manifest) resolve(entry string) string {
	if entry == "" || filepath.IsAbs(entry) {
		return entry
	}
	return filepath.Join(m.dir, entry)
}
