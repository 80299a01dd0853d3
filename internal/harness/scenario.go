package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/liturgia/internal/script"
	"github.com/roach88/liturgia/internal/seed"
	"github.com/roach88/liturgia/internal/testutil"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Liturgy LiturgySetup `yaml:"liturgy"`

	// Songs seed the catalog.
	Songs []seed.Song `yaml:"songs,omitempty"`

	// Profiles seed the people steps can be assigned to.
	Profiles []seed.Profile `yaml:"profiles,omitempty"`

	// Steps are the persisted steps before the session opens.
	Steps []seed.Step `yaml:"steps,omitempty"`

	// Fail arms gateway failures.
	Fail []Failure `yaml:"fail,omitempty"`

	Operations []script.Op `yaml:"operations"`

	Assertions Assertions `yaml:"assertions"`
}

// LiturgySetup is the liturgy a scenario edits.
type LiturgySetup struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Date  string `yaml:"date"`
}

// Failure makes a gateway call fail once Skip calls to it have succeeded.
// With Times set, only that many calls fail; later calls succeed again.
type Failure struct {
	Call  string `yaml:"call"`
	Skip  int    `yaml:"skip,omitempty"`
	Times int    `yaml:"times,omitempty"`
	Error string `yaml:"error"`
}

// Assertions are checked after the last operation. Unset fields are not
// checked.
type Assertions struct {
	Dirty          *bool     `yaml:"dirty,omitempty"`
	Stale          *bool     `yaml:"stale,omitempty"`
	PendingDeletes *[]string `yaml:"pending_deletes,omitempty"`
	RemoteTitles   *[]string `yaml:"remote_titles,omitempty"`
	CallOrder      *[]string `yaml:"call_order,omitempty"`

	// CommitError is the code of the last failed commit, or "" for none.
	CommitError *string `yaml:"commit_error,omitempty"`
}

var knownCalls = map[string]bool{
	testutil.CallListSteps:       true,
	testutil.CallBulkDelete:      true,
	testutil.CallBulkUpsert:      true,
	testutil.CallDocumentUpdated: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Liturgy.ID == "" {
		return fmt.Errorf("liturgy.id is required")
	}
	if len(s.Operations) == 0 {
		return fmt.Errorf("operations list is required and must be non-empty")
	}
	if err := script.Validate(s.Operations); err != nil {
		return err
	}
	for i, f := range s.Fail {
		if !knownCalls[f.Call] {
			return fmt.Errorf("fail[%d]: unknown call %q", i, f.Call)
		}
		if f.Error == "" {
			return fmt.Errorf("fail[%d]: error is required", i)
		}
		if f.Skip < 0 {
			return fmt.Errorf("fail[%d]: skip must not be negative", i)
		}
		if f.Times < 0 {
			return fmt.Errorf("fail[%d]: times must not be negative", i)
		}
	}
	return s.seed().Validate()
}

// seed is the store content the scenario starts from.
func (s *Scenario) seed() *seed.Seed {
	return &seed.Seed{
		Songs:    s.Songs,
		Profiles: s.Profiles,
		Liturgies: []seed.Liturgy{{
			ID:    s.Liturgy.ID,
			Title: s.Liturgy.Title,
			Date:  s.Liturgy.Date,
			Steps: s.Steps,
		}},
	}
}
