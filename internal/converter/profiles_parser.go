package converter

import (
	"io"
	"os"

	"github.com/vcf-converter/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseProfiles parses a YAML profiles file.
func ParseProfiles(filePath string) (*models.ProfileSet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseProfilesFromReader(file)
}

// ParseProfilesFromReader parses profiles from an io.Reader.
func ParseProfilesFromReader(r io.Reader) (*models.ProfileSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var set models.ProfileSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, err
	}

	return &set, nil
}
