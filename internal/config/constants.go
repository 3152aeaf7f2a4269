// Package config contains everything related to configuration
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// serviceConfig is the slice of the service's config.yaml this app reads.
type serviceConfig struct {
	RemoteManagement struct {
		SecretKey string `yaml:"secret-key"`
	} `yaml:"remote-management"`
}

// LoadManagementKey reads the remote-management secret key from the
// service's config.yaml. Returns "" when the file is missing or the key is
// not set; the caller decides whether that is fatal.
func LoadManagementKey(path string) string {
	if path == "" {
		return ""
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return parseManagementKey(content)
}

func parseManagementKey(content []byte) string {
	var sc serviceConfig
	if err := yaml.Unmarshal(content, &sc); err != nil {
		return ""
	}
	return sc.RemoteManagement.SecretKey
}
