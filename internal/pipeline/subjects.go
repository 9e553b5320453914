// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// SubjectsFile is the on-disk list of subjects for a run, letting an
// operator keep the subject roster outside the main config file.
type SubjectsFile struct {
	Subjects []string `yaml:"subjects"`
}

// LoadSubjects reads a subjects YAML file, trimming whitespace and
// dropping blanks and duplicates while preserving order.
func LoadSubjects(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading subjects file: %w", err)
	}

	var sf SubjectsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing subjects file %s: %w", path, err)
	}

	return CleanSubjects(sf.Subjects), nil
}

// CleanSubjects normalizes a subject list: trims whitespace, drops
// empty entries, removes duplicates keeping first occurrence.
func CleanSubjects(subjects []string) []string {
	seen := make(map[string]bool, len(subjects))
	var out []string
	for _, s := range subjects {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
