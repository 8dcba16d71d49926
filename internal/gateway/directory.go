package gateway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Directory maps party and broker codes to display names.
type Directory struct {
	Parties map[string]string `yaml:"parties"`
	Brokers map[string]string `yaml:"brokers"`
}

// LoadDirectory reads a YAML directory file.
func LoadDirectory(path string) (*Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", path, err)
	}
	var d Directory
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("failed to parse directory %s: %w", path, err)
	}
	return &d, nil
}

// Resolve looks the code up among parties, then brokers.
func (d *Directory) Resolve(code string) (string, bool) {
	if d == nil {
		return "", false
	}
	if name := d.Parties[code]; name != "" {
		return name, true
	}
	if name := d.Brokers[code]; name != "" {
		return name, true
	}
	return "", false
}
