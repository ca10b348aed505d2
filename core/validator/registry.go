package validator

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// Registry holds named schemas, typically one per operation.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// LoadFS compiles every *.json file in dir of fsys. Schemas are named after the
// file without its extension, so "schemas/createUser.json" becomes "createUser".
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if err := r.Add(strings.TrimSuffix(e.Name(), ".json"), data); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add compiles and registers a schema, replacing any schema with the same name.
func (r *Registry) Add(name string, document []byte) error {
	s, err := Compile(name, document)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[name] = s
	return nil
}

// Get returns the named schema.
func (r *Registry) Get(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	return s, nil
}

// Names returns the registered schema names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	return names
}
