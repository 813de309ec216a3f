// Package models persists trained model artifacts on disk. Every retrain
// writes a fresh immutable version directory; readers always load the newest
// complete version, so a crash mid-write can never corrupt the serving model.
package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/ml"
)

const (
	DefaultDir          = "./models"
	DefaultKeepVersions = 5

	modelFile    = "model.json"
	scalerFile   = "scaler.json"
	metadataFile = "metadata.json"
)

// ErrNoArtifact reports that no trained model exists for the horizon yet.
var ErrNoArtifact = errors.New("no trained model artifact for this horizon")

// Artifact bundles everything needed to serve predictions for one horizon.
type Artifact struct {
	Metadata domain.ModelMetadata
	Model    ml.Forest
	Scaler   ml.Scaler
}

// Store lays artifacts out as dir/<horizon>d/<version>/{model,scaler,metadata}.json.
// Version ids start with a UTC timestamp so lexical order is creation order.
type Store struct {
	dir  string
	keep int
}

// NewStore creates the artifact root if needed. keep limits how many versions
// per horizon survive a save; values below 1 fall back to the default.
func NewStore(dir string, keep int) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if keep < 1 {
		keep = DefaultKeepVersions
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create model artifact dir")
	}
	return &Store{dir: dir, keep: keep}, nil
}

// NewVersion mints a fresh artifact version id.
func NewVersion(at time.Time) string {
	return fmt.Sprintf("%s_%s", at.UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
}

func (s *Store) horizonDir(horizonDays int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%dd", horizonDays))
}

// Save writes the artifact as a new version and prunes old versions beyond
// the keep limit. The version directory is staged under a temporary name and
// renamed into place, so partially written versions are never visible.
func (s *Store) Save(artifact Artifact) error {
	if artifact.Metadata.Version == "" {
		return errors.New("artifact version is empty")
	}

	hdir := s.horizonDir(artifact.Metadata.HorizonDays)
	if err := os.MkdirAll(hdir, 0o755); err != nil {
		return errors.Wrap(err, "create horizon dir")
	}

	staging := filepath.Join(hdir, ".staging_"+artifact.Metadata.Version)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return errors.Wrap(err, "create staging dir")
	}
	defer os.RemoveAll(staging)

	files := map[string]any{
		modelFile:    artifact.Model,
		scalerFile:   artifact.Scaler,
		metadataFile: artifact.Metadata,
	}
	for name, payload := range files {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return errors.Wrapf(err, "marshal %s", name)
		}
		if err := os.WriteFile(filepath.Join(staging, name), data, 0o644); err != nil {
			return errors.Wrapf(err, "write %s", name)
		}
	}

	final := filepath.Join(hdir, artifact.Metadata.Version)
	if err := os.Rename(staging, final); err != nil {
		return errors.Wrap(err, "publish artifact version")
	}

	return s.prune(hdir)
}

// LoadLatest returns the newest complete artifact for the horizon.
func (s *Store) LoadLatest(horizonDays int) (Artifact, error) {
	versions, err := s.versions(s.horizonDir(horizonDays))
	if err != nil {
		return Artifact{}, err
	}

	for i := len(versions) - 1; i >= 0; i-- {
		artifact, err := s.load(filepath.Join(s.horizonDir(horizonDays), versions[i]))
		if err == nil {
			return artifact, nil
		}
	}
	return Artifact{}, errors.Wrapf(ErrNoArtifact, "horizon %dd", horizonDays)
}

// LatestMetadata returns only the metadata of the newest artifact.
func (s *Store) LatestMetadata(horizonDays int) (domain.ModelMetadata, error) {
	artifact, err := s.LoadLatest(horizonDays)
	if err != nil {
		return domain.ModelMetadata{}, err
	}
	return artifact.Metadata, nil
}

func (s *Store) load(dir string) (Artifact, error) {
	var artifact Artifact
	targets := map[string]any{
		modelFile:    &artifact.Model,
		scalerFile:   &artifact.Scaler,
		metadataFile: &artifact.Metadata,
	}
	for name, target := range targets {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return Artifact{}, errors.Wrapf(err, "read %s", name)
		}
		if err := json.Unmarshal(data, target); err != nil {
			return Artifact{}, errors.Wrapf(err, "decode %s", name)
		}
	}
	return artifact, nil
}

func (s *Store) versions(hdir string) ([]string, error) {
	entries, err := os.ReadDir(hdir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "list artifact versions")
	}

	var versions []string
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		versions = append(versions, e.Name())
	}
	sort.Strings(versions)
	return versions, nil
}

func (s *Store) prune(hdir string) error {
	versions, err := s.versions(hdir)
	if err != nil {
		return err
	}
	for len(versions) > s.keep {
		if err := os.RemoveAll(filepath.Join(hdir, versions[0])); err != nil {
			return errors.Wrapf(err, "prune artifact version %s", versions[0])
		}
		versions = versions[1:]
	}
	return nil
}
