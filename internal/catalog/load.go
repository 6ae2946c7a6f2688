package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region load
// Load reads a playbook library from a YAML file. The file holds a list of
// playbooks in priority order.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var playbooks []Playbook
	if err := yaml.Unmarshal(raw, &playbooks); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(playbooks) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}
	for i, p := range playbooks {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog %s: playbook %d has no id", path, i)
		}
	}
	return New(playbooks), nil
}

// #endregion load
