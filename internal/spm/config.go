package spm

import (
	"fmt"
	"os"
	"strings"

	"github.com/tizen/itest/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where spm looks for its configuration
const DefaultConfigPath = "/etc/spm.yml"

// Repo is a package repository added before refreshing
type Repo struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Distribution holds the package manager commands of a distribution.
// Package names are appended to Install and Remove; AddRepo may refer to
// {name} and {url}.
type Distribution struct {
	Install string `yaml:"install"`
	Remove  string `yaml:"remove"`
	Refresh string `yaml:"refresh"`
	AddRepo string `yaml:"add_repo"`
	Repos   []Repo `yaml:"repos"`
}

// Config maps a distribution id (as in os-release ID or ID_LIKE) to its
// commands
type Config struct {
	Distributions map[string]*Distribution `yaml:"distributions"`
}

// LoadConfig reads a spm.yml file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewError(models.ErrConfig, path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig decodes spm.yml contents; name is used in errors
func ParseConfig(data []byte, name string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, models.NewError(models.ErrConfig, name, err)
	}

	for id, d := range cfg.Distributions {
		if d == nil || d.Install == "" || d.Remove == "" {
			return nil, models.NewError(models.ErrConfig, name,
				fmt.Errorf("distribution %q needs install and remove commands", id))
		}
		if len(d.Repos) > 0 && d.AddRepo == "" {
			return nil, models.NewError(models.ErrConfig, name,
				fmt.Errorf("distribution %q lists repos but no add_repo command", id))
		}
	}
	return &cfg, nil
}

// Lookup returns the first distribution matching one of ids
func (c *Config) Lookup(ids []string) (string, *Distribution, error) {
	for _, id := range ids {
		if d, ok := c.Distributions[strings.ToLower(id)]; ok {
			return id, d, nil
		}
	}
	return "", nil, models.NewError(models.ErrConfig, strings.Join(ids, ","),
		fmt.Errorf("no package manager configured for this distribution"))
}
