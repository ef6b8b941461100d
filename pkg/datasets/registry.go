// Package datasets loads the registry of agent datasets a collector polls,
// declared in a YAML or JSON file.
package datasets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Dataset is one polled dataset entry from the registry file.
type Dataset struct {
	Name    string `json:"name" yaml:"name"`
	Format  string `json:"format" yaml:"format"`
	Enabled *bool  `json:"enabled" yaml:"enabled"`
	Note    string `json:"note" yaml:"note"`
}

const (
	defaultFormat = "json"

	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// EnabledValue returns the enabled flag defaulting to true.
func (d Dataset) EnabledValue() bool {
	if d.Enabled == nil {
		return true
	}
	return *d.Enabled
}

type registryFile struct {
	Datasets []Dataset `json:"datasets" yaml:"datasets"`
}

// Registry materializes dataset definitions loaded from a config file.
type Registry struct {
	mu       sync.RWMutex
	datasets []Dataset
	idx      map[string]Dataset
}

// LoadRegistry loads the dataset registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("datasets file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open datasets file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read datasets file: %w", err)
	}

	fileReg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Datasets) == 0 {
		return nil, errors.New("datasets file contains no datasets entries")
	}

	reg := &Registry{
		datasets: make([]Dataset, len(fileReg.Datasets)),
		idx:      make(map[string]Dataset, len(fileReg.Datasets)),
	}

	for i := range fileReg.Datasets {
		d := sanitizeDataset(fileReg.Datasets[i])
		if err := validateDataset(d); err != nil {
			return nil, fmt.Errorf("datasets[%d]: %w", i, err)
		}
		if _, exists := reg.idx[d.Name]; exists {
			return nil, fmt.Errorf("duplicate dataset %q", d.Name)
		}
		reg.datasets[i] = d
		reg.idx[d.Name] = d
	}

	return reg, nil
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("datasets file format not recognized (expected YAML or JSON)")
}

func unmarshalRegistry(name string, data []byte, fn func([]byte, any) error) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s datasets: %w", name, err)
	}
	return reg, nil
}

func sanitizeDataset(d Dataset) Dataset {
	d.Name = strings.TrimSpace(d.Name)
	d.Format = strings.ToLower(strings.TrimSpace(d.Format))
	d.Note = strings.TrimSpace(d.Note)

	if d.Format == "" {
		d.Format = defaultFormat
	}

	return d
}

func validateDataset(d Dataset) error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.Format != FormatJSON && d.Format != FormatJSONL {
		return fmt.Errorf("unsupported format %q for dataset %q", d.Format, d.Name)
	}
	return nil
}

// ByName returns the dataset entry by name.
func (r *Registry) ByName(name string) (Dataset, bool) {
	if r == nil {
		return Dataset{}, false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Dataset{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.idx[name]
	return d, ok
}

// All returns all configured datasets.
func (r *Registry) All() []Dataset {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Dataset, len(r.datasets))
	copy(out, r.datasets)
	return out
}

// Enabled returns datasets that are enabled.
func (r *Registry) Enabled() []Dataset {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]Dataset, 0, len(all))
	for _, d := range all {
		if d.EnabledValue() {
			out = append(out, d)
		}
	}
	return out
}
