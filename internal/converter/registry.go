package converter

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vcf-converter/backend/internal/models"
)

// Registry holds the available converters keyed by profile name.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]*Converter
	defaultKey string
}

// NewRegistry returns a registry containing the built-in profile.
func NewRegistry() *Registry {
	r := &Registry{
		converters: make(map[string]*Converter),
		defaultKey: DefaultProfileName,
	}
	r.converters[DefaultProfileName] = defaultConverter
	return r
}

// Register compiles p and adds it, replacing any profile with the same name.
func (r *Registry) Register(p models.Profile) error {
	c, err := New(p)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[strings.ToLower(p.Name)] = c
	return nil
}

// RegisterAll registers every profile in set. It stops at the first invalid
// profile.
func (r *Registry) RegisterAll(set *models.ProfileSet) error {
	for _, p := range set.Profiles {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// SetDefault selects the converter returned for an empty name.
func (r *Registry) SetDefault(name string) error {
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.converters[key]; !ok {
		return fmt.Errorf("profile not found: %s", name)
	}
	r.defaultKey = key
	return nil
}

// Get returns a converter by case-insensitive profile name. An empty name
// selects the default profile.
func (r *Registry) Get(name string) (*Converter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := strings.ToLower(name)
	if key == "" {
		key = r.defaultKey
	}
	c, ok := r.converters[key]
	if !ok {
		return nil, fmt.Errorf("profile not found: %s", name)
	}
	return c, nil
}

// Profiles lists all registered profiles sorted by name.
func (r *Registry) Profiles() []models.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Profile, 0, len(r.converters))
	for _, c := range r.converters {
		out = append(out, c.Profile())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
