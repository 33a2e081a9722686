package audio

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/chains/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultMusicVolume applies when a catalog sets music without a volume.
const DefaultMusicVolume = 0.2

// Catalog is a set of clips sharing a namespace prefix.
type Catalog struct {
	Prefix      string  `yaml:"prefix"`
	Music       string  `yaml:"music,omitempty"`
	MusicVolume float64 `yaml:"music_volume,omitempty"`
	Clips       []Clip  `yaml:"clips"`
}

// Clip describes one playable sound.
type Clip struct {
	Name string `yaml:"name"`
	// File is the resource handed to the engine. Defaults to Name.
	File string `yaml:"file,omitempty"`
	// Long clips play on the single shared source instead of as an effect.
	Long bool `yaml:"long,omitempty"`
	// Duration is asked from the engine on first play when zero.
	Duration time.Duration `yaml:"duration,omitempty"`
}

// LoadCatalog reads a YAML catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i, clip := range c.Clips {
		if strings.TrimSpace(clip.Name) == "" {
			return nil, fmt.Errorf("clip #%d has no name", i)
		}
	}
	if c.Music != "" && c.MusicVolume == 0 {
		c.MusicVolume = DefaultMusicVolume
	}
	return &c, nil
}

// NamespacePrefix normalizes prefix into the form prepended to clip names:
// trimmed, and followed by a separator only when not empty.
func NamespacePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	return prefix + domain.NamespaceSeparator
}

// IDs returns the namespaced ids of the catalog clips, in declaration order.
func (c *Catalog) IDs() []string {
	p := NamespacePrefix(c.Prefix)
	ids := make([]string, 0, len(c.Clips))
	for _, clip := range c.Clips {
		ids = append(ids, p+clip.Name)
	}
	return ids
}
