package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Lists of skill codes are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Topics  map[string][]string `yaml:"topics"`  // topic -> dataset skill codes
	Dataset DatasetConfig       `yaml:"dataset"`
}

// DatasetConfig overrides the dataset's CSV header names.
type DatasetConfig struct {
	SkillColumn   string `yaml:"skill_column,omitempty"`
	ProblemColumn string `yaml:"problem_column,omitempty"`
	CorrectColumn string `yaml:"correct_column,omitempty"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Dataset.SkillColumn == "" {
		cfg.Dataset.SkillColumn = "skills"
	}
	if cfg.Dataset.ProblemColumn == "" {
		cfg.Dataset.ProblemColumn = "problem_id"
	}
	if cfg.Dataset.CorrectColumn == "" {
		cfg.Dataset.CorrectColumn = "correct"
	}

	return &cfg, nil
}

// TopicMap returns the configured topics with blank codes dropped.
func (c *YAMLConfig) TopicMap() map[string][]string {
	if c == nil {
		return nil
	}
	out := make(map[string][]string, len(c.Topics))
	for topic, codes := range c.Topics {
		var kept []string
		for _, code := range codes {
			if code = strings.TrimSpace(code); code != "" {
				kept = append(kept, code)
			}
		}
		if len(kept) > 0 {
			out[topic] = kept
		}
	}
	return out
}
