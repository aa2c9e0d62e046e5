package machine

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/mmr-tortoise/cardpunch/internal/model"
)

//go:embed machines.yaml
var builtinTable []byte

// Registry is a frozen, id-keyed set of machine profiles.
//
// The zero value is an empty registry; use NewRegistry or Default to
// build a usable one.
type Registry struct {
	// profiles maps id to profile. Never written after NewRegistry returns.
	profiles map[string]model.MachineProfile

	// ids holds the registered ids in sorted order for stable listings.
	ids []string
}

// NewRegistry validates the given profiles and freezes them into a
// Registry. It fails with an invalid_request engine error when the table
// is empty, contains duplicate ids, or any profile is invalid.
func NewRegistry(profiles []model.MachineProfile) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, model.InvalidRequest("registry", "machines", "machine profile table is empty")
	}

	r := &Registry{
		profiles: make(map[string]model.MachineProfile, len(profiles)),
		ids:      make([]string, 0, len(profiles)),
	}

	var problems []string
	for _, p := range profiles {
		p = applyDefaults(p)

		if _, dup := r.profiles[p.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", p.ID))
			continue
		}
		for _, verr := range ValidateProfile(p) {
			problems = append(problems, verr.Error())
		}

		r.profiles[p.ID] = p
		r.ids = append(r.ids, p.ID)
	}

	if len(problems) > 0 {
		return nil, model.InvalidRequest("registry", "machines", strings.Join(problems, "; "))
	}

	sort.Strings(r.ids)
	return r, nil
}

// Default returns a registry built from the embedded machines.yaml.
func Default() (*Registry, error) {
	profiles, err := Parse(builtinTable, FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in machine table: %w", err)
	}
	return NewRegistry(profiles)
}

// Open returns the built-in registry, merged with the table at path when
// path is non-empty. Entries in the file replace built-ins with the same id.
func Open(path string) (*Registry, error) {
	reg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return reg, nil
	}

	extra, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return reg.Merge(extra)
}

// Merge returns a new registry containing r's profiles with overrides
// applied on top. r itself is left untouched.
func (r *Registry) Merge(overrides []model.MachineProfile) (*Registry, error) {
	byID := make(map[string]model.MachineProfile, len(r.ids)+len(overrides))
	order := make([]string, 0, len(r.ids)+len(overrides))

	for _, id := range r.ids {
		byID[id] = r.profiles[id]
		order = append(order, id)
	}

	seen := make(map[string]bool, len(overrides))
	for _, p := range overrides {
		if seen[p.ID] {
			return nil, model.InvalidRequest("registry", "machines", fmt.Sprintf("%s: duplicate id", p.ID))
		}
		seen[p.ID] = true

		if _, exists := byID[p.ID]; !exists {
			order = append(order, p.ID)
		}
		byID[p.ID] = p
	}

	merged := make([]model.MachineProfile, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return NewRegistry(merged)
}

// Resolve looks up a profile by id. The returned value is a copy.
func (r *Registry) Resolve(id string) (model.MachineProfile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return model.MachineProfile{}, model.UnknownMachine("resolve", id)
	}
	return p, nil
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Profiles returns copies of all profiles, sorted by id.
func (r *Registry) Profiles() []model.MachineProfile {
	out := make([]model.MachineProfile, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.profiles[id])
	}
	return out
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	return len(r.ids)
}

// applyDefaults fills optional fields the table may omit and folds the
// case of enum values. Unknown values are left for validation to report.
func applyDefaults(p model.MachineProfile) model.MachineProfile {
	if p.HoleShape == "" {
		p.HoleShape = model.HoleRect
	} else if shape, err := model.ParseHoleShape(string(p.HoleShape)); err == nil {
		p.HoleShape = shape
	}
	if p.Encoding == "" {
		p.Encoding = model.EncodingBitstream
	} else if enc, err := model.ParseEncoding(string(p.Encoding)); err == nil {
		p.Encoding = enc
	}
	return p
}
