package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadYAMLLayer reads a YAML file into a generic node tree, returning nil
// (not an error) if the file does not exist — layers are optional.
func loadYAMLLayer(path string) (*yaml.Node, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfigInvalid, path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfigInvalid, path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

// mergeYAMLNodes deep-merges override into base (mapping keys recurse,
// scalar/sequence values in override replace base outright). base may be
// nil, in which case override is returned unchanged.
func mergeYAMLNodes(base, override *yaml.Node) *yaml.Node {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}
	if base.Kind != yaml.MappingNode || override.Kind != yaml.MappingNode {
		return override
	}

	result := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	indexOf := func(n *yaml.Node, key string) int {
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key {
				return i
			}
		}
		return -1
	}

	result.Content = append(result.Content, base.Content...)
	for i := 0; i+1 < len(override.Content); i += 2 {
		key := override.Content[i]
		val := override.Content[i+1]
		if idx := indexOf(result, key.Value); idx >= 0 {
			result.Content[idx+1] = mergeYAMLNodes(result.Content[idx+1], val)
		} else {
			result.Content = append(result.Content, key, val)
		}
	}
	return result
}

// Load builds the final Config by deep-merging base -> device-profile ->
// environment overrides, then validating the result. profilePath may be
// empty (no device profile applied).
func Load(basePath, profilePath string) (Config, error) {
	cfg := Default()

	baseNode, err := loadYAMLLayer(basePath)
	if err != nil {
		return Config{}, err
	}
	profileNode, err := loadYAMLLayer(profilePath)
	if err != nil {
		return Config{}, err
	}

	merged := mergeYAMLNodes(baseNode, profileNode)
	if merged != nil {
		if err := merged.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("%w: decoding merged config: %v", ErrConfigInvalid, err)
		}
	}

	if err := applyEnvOverrides(&cfg, "AGENT", os.Environ()); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
