package seed

import (
	"fmt"
	"os"
	"strings"

	"solarshare/internal/models"
	"solarshare/internal/validation"

	"gopkg.in/yaml.v3"
)

// Scenario describes a demo dataset: who provides quotes and how far each
// community has progressed through the quote, vote and install pipeline.
type Scenario struct {
	Providers   []ProviderSpec  `yaml:"providers"`
	Communities []CommunitySpec `yaml:"communities"`
}

// ProviderSpec names a provider account. Empty fields are generated.
type ProviderSpec struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// CommunitySpec is one community and the stage it should reach.
type CommunitySpec struct {
	Name        string `yaml:"name"`
	ZipCode     string `yaml:"zip_code"`
	Description string `yaml:"description"`
	// Members includes the admin.
	Members int `yaml:"members"`
	// Quotes is how many providers quote on the community's request; 0 skips the request.
	Quotes      int                  `yaml:"quotes"`
	Vote        bool                 `yaml:"vote"`
	CloseVoting bool                 `yaml:"close_voting"`
	Progress    models.ProjectStatus `yaml:"progress"`
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path) // #nosec G304: operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(raw []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario can be applied as written.
func (sc *Scenario) Validate() error {
	if len(sc.Communities) == 0 {
		return fmt.Errorf("scenario has no communities")
	}
	for i, c := range sc.Communities {
		where := fmt.Sprintf("community %d", i+1)
		if c.Name != "" {
			if err := validation.ValidateCommunityName(c.Name); err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}
		}
		if c.ZipCode != "" {
			if err := validation.ValidateZipCode(c.ZipCode); err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}
		}
		if c.Members < 1 {
			return fmt.Errorf("%s: members must be at least 1", where)
		}
		if c.Quotes > len(sc.Providers) {
			return fmt.Errorf("%s: %d quotes but only %d providers", where, c.Quotes, len(sc.Providers))
		}
		if (c.Vote || c.CloseVoting) && c.Quotes == 0 {
			return fmt.Errorf("%s: voting needs at least one quote", where)
		}
		if c.Progress != "" {
			c.Progress = models.ProjectStatus(strings.ToLower(string(c.Progress)))
			sc.Communities[i].Progress = c.Progress
			if !c.Progress.Valid() {
				return fmt.Errorf("%s: unknown progress %q", where, c.Progress)
			}
			if !c.CloseVoting {
				return fmt.Errorf("%s: progress requires close_voting", where)
			}
		}
	}
	return nil
}

// DefaultScenario generates a scenario from counts: communities cycle through
// every pipeline stage so each screen has something to show.
func DefaultScenario(opts Options) *Scenario {
	communities := opts.Communities
	if communities <= 0 {
		communities = 4
	}
	members := opts.MembersPerCommunity
	if members <= 0 {
		members = 5
	}
	providers := opts.Providers
	if providers <= 0 {
		providers = 3
	}

	sc := &Scenario{Providers: make([]ProviderSpec, providers)}
	stages := []CommunitySpec{
		{},
		{Quotes: providers},
		{Quotes: providers, Vote: true},
		{Quotes: providers, Vote: true, CloseVoting: true, Progress: models.ProjectStatusInstallation},
		{Quotes: providers, Vote: true, CloseVoting: true, Progress: models.ProjectStatusCompleted},
	}
	for i := 0; i < communities; i++ {
		spec := stages[i%len(stages)]
		spec.Members = members
		sc.Communities = append(sc.Communities, spec)
	}
	return sc
}
