// Package config handles the nexus home directory and the server config file.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Server holds settings read from <home>/config.yaml. All fields are
// optional; flags and environment variables take precedence.
type Server struct {
	HumanName string `yaml:"human_name,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	DBDriver  string `yaml:"db_driver,omitempty"` // sqlite (default) or postgres
	DBURL     string `yaml:"db_url,omitempty"`
}

// Path returns the server config file path: <home>/config.yaml.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// LoadServer loads the server config from <home>/config.yaml. Returns nil
// config and nil error if the file is missing.
func LoadServer(home string) (*Server, error) {
	data, err := os.ReadFile(Path(home))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg Server
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveServer writes the server config to <home>/config.yaml.
func SaveServer(home string, cfg *Server) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(home), data, 0o644)
}
