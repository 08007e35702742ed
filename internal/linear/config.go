package linear

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config maps human names to Linear ids for one team, typically generated once
// per workspace and checked in as linear-config.json.
type Config struct {
	TeamID          string            `json:"teamId" yaml:"teamId" toml:"teamId"`
	Labels          map[string]string `json:"labels" yaml:"labels" toml:"labels"`
	States          map[string]string `json:"states" yaml:"states" toml:"states"`
	ProjectStatuses map[string]string `json:"projectStatuses" yaml:"projectStatuses" toml:"projectStatuses"`
}

// LoadConfig reads a team config file. The format follows the extension:
// .yaml/.yml and .toml are supported, anything else is parsed as JSON.
// Missing fields default to empty. Failures are *ConfigurationError.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Message: "reading config " + path, Err: err}
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &ConfigurationError{Message: "parsing config " + path, Err: err}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// WriteConfig writes cfg to path in the format its extension names, using the
// same rules as LoadConfig.
func WriteConfig(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encoding config %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// ConfigFromTeam builds a Config mapping the team's label and state names,
// and the workspace's project status names, to their ids.
func ConfigFromTeam(team *Team, statuses []ProjectStatus) *Config {
	cfg := &Config{TeamID: team.ID}
	cfg.applyDefaults()
	for _, l := range team.Labels {
		cfg.Labels[l.Name] = l.ID
	}
	for _, s := range team.States {
		cfg.States[s.Name] = s.ID
	}
	for _, s := range statuses {
		cfg.ProjectStatuses[s.Name] = s.ID
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Labels == nil {
		c.Labels = map[string]string{}
	}
	if c.States == nil {
		c.States = map[string]string{}
	}
	if c.ProjectStatuses == nil {
		c.ProjectStatuses = map[string]string{}
	}
}

// LabelID looks up a label id by name.
func (c *Config) LabelID(name string) (string, bool) {
	return lookupName(c.Labels, name)
}

// StateID looks up a workflow state id by name.
func (c *Config) StateID(name string) (string, bool) {
	return lookupName(c.States, name)
}

// ProjectStatusID looks up a project status id by name.
func (c *Config) ProjectStatusID(name string) (string, bool) {
	return lookupName(c.ProjectStatuses, name)
}

// lookupName prefers an exact key and falls back to a case-insensitive match.
func lookupName(m map[string]string, name string) (string, bool) {
	if id, ok := m[name]; ok {
		return id, true
	}
	for k, id := range m {
		if strings.EqualFold(k, name) {
			return id, true
		}
	}
	return "", false
}

// requireConfig returns the client's config or a *ConfigurationError naming
// what needed it.
func (c *Client) requireConfig(purpose string) (*Config, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, &ConfigurationError{Message: fmt.Sprintf("%s needs a team config file", purpose)}
	}
	return cfg, nil
}
