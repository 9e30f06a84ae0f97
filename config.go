package halserve

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hal-serve/hal-serve/store"
)

// Seed describes resources to load into storage at startup.
type Seed struct {
	Resources []SeedResource `yaml:"resources"`
}

type SeedResource struct {
	Path       string                 `yaml:"path"`
	Attributes map[string]interface{} `yaml:"attributes"`
}

// LoadSeed reads a seed file.
func LoadSeed(filename string) (Seed, error) {
	var seed Seed
	seedBytes, err := os.ReadFile(filename)
	if err != nil {
		return seed, err
	}
	err = yaml.Unmarshal(seedBytes, &seed)
	return seed, err
}

// ApplySeed stores all seed resources, computing their entity-tags.
func ApplySeed(p store.ResourceProvider, seed Seed) error {
	for _, res := range seed.Resources {
		err := p.Put(store.Entry{Path: res.Path, Attributes: res.Attributes})
		if err != nil {
			return err
		}
	}
	return nil
}
