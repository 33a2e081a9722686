package scenario

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/chains/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// GroupMode selects how the chains of a document are coordinated.
type GroupMode string

const (
	GroupParallel   GroupMode = "parallel"   // All chains start at once; onAll runs when every one completed
	GroupSequential GroupMode = "sequential" // Each chain starts when the previous one completed
	GroupNone       GroupMode = "none"       // Chains start independently; no group callback
)

// StepKind names the single key that defines a step.
type StepKind string

const (
	KindWait   StepKind = "wait"
	KindLog    StepKind = "log"
	KindNoWait StepKind = "nowait"
	KindPlay   StepKind = "play"
	KindCall   StepKind = "call"
	KindEmbed  StepKind = "embed"
)

var stepKinds = []StepKind{KindWait, KindLog, KindNoWait, KindPlay, KindCall, KindEmbed}

// Document is a scenario file.
type Document struct {
	Group  GroupMode   `yaml:"group"`
	Chains []ChainSpec `yaml:"chains"`
}

// ChainSpec declares one chain. An empty ID gets a generated one.
type ChainSpec struct {
	ID    string           `yaml:"id"`
	Mode  domain.ChainMode `yaml:"mode"`
	Steps []StepSpec       `yaml:"steps"`
}

// StepSpec declares one step. Exactly one kind key is set.
type StepSpec struct {
	Kind   StepKind       `mapstructure:"-"`
	Wait   time.Duration  `mapstructure:"wait"`
	Log    string         `mapstructure:"log"`
	NoWait string         `mapstructure:"nowait"`
	Play   string         `mapstructure:"play"`
	Volume *float64       `mapstructure:"volume"`
	Call   string         `mapstructure:"call"`
	Args   map[string]any `mapstructure:"args"`
	Embed  *ChainSpec     `mapstructure:"-"`

	line int
}

// UnmarshalYAML decodes a step mapping. Scalar fields go through mapstructure so that
// durations like "1.5s" decode and unknown keys are rejected.
func (s *StepSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: step must be a mapping", node.Line)
	}
	s.line = node.Line

	raw := make(map[string]any, len(node.Content)/2)
	var kinds []StepKind
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		if key == string(KindEmbed) {
			var sub ChainSpec
			if err := val.Decode(&sub); err != nil {
				return err
			}
			s.Embed = &sub
			kinds = append(kinds, KindEmbed)
			continue
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return err
		}
		raw[key] = v
	}

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Metadata:    &md,
		Result:      s,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	for _, key := range md.Keys {
		if k := StepKind(key); slices.Contains(stepKinds, k) {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) != 1 {
		return fmt.Errorf("line %d: step needs exactly one of %s", node.Line, kindList())
	}
	s.Kind = kinds[0]
	return nil
}

func kindList() string {
	names := make([]string, len(stepKinds))
	for i, k := range stepKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Load reads a scenario file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a scenario document. It does not validate it.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidScenario, err)
	}
	if doc.Group == "" {
		doc.Group = GroupParallel
	}
	return &doc, nil
}
