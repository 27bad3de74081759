package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AdminFile is the on-disk admin bootstrap list.
//
//	admins:
//	  - email: ops@example.com
type AdminFile struct {
	Admins []AdminEntry `yaml:"admins"`
}

type AdminEntry struct {
	Email string `yaml:"email"`
}

// LoadAdminEmails reads admin emails from a YAML file.
func LoadAdminEmails(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin config: %w", err)
	}
	var file AdminFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse admin config: %w", err)
	}
	emails := make([]string, 0, len(file.Admins))
	for _, entry := range file.Admins {
		emails = append(emails, entry.Email)
	}
	return normalizeEmails(emails), nil
}

// normalizeEmails lowercases, trims and deduplicates.
func normalizeEmails(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, email := range in {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
