package assistant

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed phrases.yaml
var defaultPhrases []byte

// Phrasebook holds the fixed text pools the assistant answers from.
type Phrasebook struct {
	Help      string    `yaml:"help"`
	Jokes     []string  `yaml:"jokes"`
	Goodbyes  []string  `yaml:"goodbyes"`
	Greetings Greetings `yaml:"greetings"`
}

// Greetings are split by time of day.
type Greetings struct {
	Morning   []string `yaml:"morning"`
	Afternoon []string `yaml:"afternoon"`
	Night     []string `yaml:"night"`
}

// DefaultPhrasebook returns a fresh copy of the embedded phrasebook.
func DefaultPhrasebook() *Phrasebook {
	pb, err := ParsePhrasebook(defaultPhrases)
	if err != nil {
		panic(fmt.Sprintf("embedded phrasebook: %v", err))
	}
	return pb
}

// LoadPhrasebook reads a YAML phrasebook from disk.
func LoadPhrasebook(path string) (*Phrasebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading phrasebook: %w", err)
	}
	pb, err := ParsePhrasebook(data)
	if err != nil {
		return nil, fmt.Errorf("phrasebook %s: %w", path, err)
	}
	return pb, nil
}

// ParsePhrasebook decodes and validates a YAML phrasebook.
func ParsePhrasebook(data []byte) (*Phrasebook, error) {
	var pb Phrasebook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("decoding phrasebook: %w", err)
	}
	if err := pb.Validate(); err != nil {
		return nil, err
	}
	return &pb, nil
}

// Validate reports every empty pool.
func (pb *Phrasebook) Validate() error {
	var errs []error
	if pb.Help == "" {
		errs = append(errs, errors.New("help text is empty"))
	}
	pools := []struct {
		name string
		pool []string
	}{
		{"jokes", pb.Jokes},
		{"goodbyes", pb.Goodbyes},
		{"greetings.morning", pb.Greetings.Morning},
		{"greetings.afternoon", pb.Greetings.Afternoon},
		{"greetings.night", pb.Greetings.Night},
	}
	for _, p := range pools {
		if len(p.pool) == 0 {
			errs = append(errs, fmt.Errorf("%s pool is empty", p.name))
		}
	}
	return errors.Join(errs...)
}

// greetingsFor picks the pool for a local hour: 06-11 morning, 12-19
// afternoon, night otherwise.
func (pb *Phrasebook) greetingsFor(hour int) []string {
	switch {
	case hour >= 6 && hour < 12:
		return pb.Greetings.Morning
	case hour >= 12 && hour < 20:
		return pb.Greetings.Afternoon
	default:
		return pb.Greetings.Night
	}
}
