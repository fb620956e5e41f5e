package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// JobsFile describes a batch of crawls for the command line scraper.
type JobsFile struct {
	Location   string   `yaml:"location"`
	MaxPages   int      `yaml:"max_pages"`
	Sources    []string `yaml:"sources"`
	Categories []string `yaml:"categories"`
}

// LoadJobs reads and validates a YAML jobs file.
func LoadJobs(path string) (*JobsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	var jobs JobsFile
	if err := yaml.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("parse jobs file: %w", err)
	}

	if jobs.Location == "" {
		return nil, fmt.Errorf("jobs file: location is required")
	}
	if len(jobs.Categories) == 0 {
		return nil, fmt.Errorf("jobs file: at least one category is required")
	}
	if len(jobs.Sources) == 0 {
		jobs.Sources = []string{"yelp"}
	}
	return &jobs, nil
}
