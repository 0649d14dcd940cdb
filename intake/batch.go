// Package intake decodes a batch file of resources and requesters into the
// registry and roster consumed by an allocation pass. YAML and JSON are both
// accepted.
package intake

import (
	"os"
	"strings"

	"ranked-allocator/allocator"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ResourceEntry is one resource in a batch file.
type ResourceEntry struct {
	ID        string   `yaml:"id" json:"id"`
	Type      string   `yaml:"type,omitempty" json:"type,omitempty"`
	Building  string   `yaml:"building,omitempty" json:"building,omitempty"`
	Floor     int      `yaml:"floor,omitempty" json:"floor,omitempty"`
	Features  []string `yaml:"features,omitempty" json:"features,omitempty"`
	Capacity  int      `yaml:"capacity" json:"capacity"`
	Occupancy int      `yaml:"occupancy,omitempty" json:"occupancy,omitempty"`
}

// RequesterEntry is one requester in a batch file. SubmittedAt must be
// supplied; it is never generated.
type RequesterEntry struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Merit       float64  `yaml:"merit" json:"merit"`
	Class       string   `yaml:"class,omitempty" json:"class,omitempty"`
	SubmittedAt *int64   `yaml:"submittedAt" json:"submittedAt"`
	Preferences []string `yaml:"preferences,omitempty" json:"preferences,omitempty"`
}

// File is the on-disk layout of a batch.
type File struct {
	Resources  []ResourceEntry  `yaml:"resources" json:"resources"`
	Requesters []RequesterEntry `yaml:"requesters" json:"requesters"`
}

// Batch is a decoded, validated batch ready for an allocation pass.
type Batch struct {
	Registry *allocator.Registry
	Roster   *allocator.Roster
}

// Load reads and parses a batch file.
func Load(path string) (*Batch, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read batch file %s", path)
	}
	batch, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "parse batch file %s", path)
	}
	log.Info().Str("path", path).Int("resources", batch.Registry.Len()).Int("requesters", batch.Roster.Len()).Msg("intake: batch loaded")
	return batch, nil
}

// Parse decodes and validates batch content.
func Parse(data []byte) (*Batch, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode batch")
	}
	return f.Build()
}

// Build converts the file entries into a registry and roster. Preferences that
// name unknown resources are kept; the engine treats them as unavailable.
func (f *File) Build() (*Batch, error) {
	specs := make([]allocator.ResourceSpec, 0, len(f.Resources))
	for _, r := range f.Resources {
		specs = append(specs, allocator.ResourceSpec{
			ID:        strings.TrimSpace(r.ID),
			Type:      r.Type,
			Building:  r.Building,
			Floor:     r.Floor,
			Features:  r.Features,
			Capacity:  r.Capacity,
			Occupancy: r.Occupancy,
		})
	}
	registry, err := allocator.NewRegistry(specs...)
	if err != nil {
		return nil, err
	}

	roster, err := allocator.NewRoster()
	if err != nil {
		return nil, err
	}
	for i, r := range f.Requesters {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return nil, errors.Errorf("requester %d: id is required", i)
		}
		if r.SubmittedAt == nil {
			return nil, errors.Errorf("requester %q: submittedAt is required", id)
		}
		for _, p := range r.Preferences {
			if _, ok := registry.Get(p); !ok {
				log.Warn().Str("requesterId", id).Str("resourceId", p).Msg("intake: preference names unknown resource")
			}
		}
		req := allocator.NewRequester(id, r.Name, r.Merit, allocator.ParsePriorityClass(r.Class), *r.SubmittedAt, r.Preferences)
		if err := roster.Add(req); err != nil {
			return nil, err
		}
	}
	return &Batch{Registry: registry, Roster: roster}, nil
}
