// Package catalog loads and validates the scenario corpus. a catalog is an ordered list of suites,
// each carrying its comparison policy, input mode and ordered cases.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/umputun/livecheck/pkg/normalize"
	"github.com/umputun/livecheck/pkg/ui"
)

//go:embed defaults/catalog.yaml
var defaultsFS embed.FS

// Case is one scenario. immutable after load.
type Case struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	Input           string `yaml:"input" json:"input"`
	Expected        string `yaml:"expected" json:"expected"`
	Partial         string `yaml:"partial,omitempty" json:"partial,omitempty"`                   // prefix typed before the remainder
	ExpectedPartial string `yaml:"expected_partial,omitempty" json:"expected_partial,omitempty"` // optional prefix of the partial output
	Category        string `yaml:"category,omitempty" json:"category,omitempty"`
	Grammar         string `yaml:"grammar,omitempty" json:"grammar,omitempty"`
	Length          string `yaml:"length,omitempty" json:"length,omitempty"`
}

// Remainder returns the part of the input typed after the partial prefix.
func (c Case) Remainder() string {
	return strings.TrimPrefix(c.Input, c.Partial)
}

// Suite groups cases judged with one policy and injected with one mode.
type Suite struct {
	Name   string           `yaml:"name" json:"name"`
	Policy normalize.Policy `yaml:"policy" json:"policy"`
	Mode   ui.Mode          `yaml:"mode" json:"mode"`
	Cases  []Case           `yaml:"cases" json:"cases"`
}

// Catalog is the ordered set of suites.
type Catalog struct {
	Suites []Suite `yaml:"suites" json:"suites"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	data, err := defaultsFS.ReadFile("defaults/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	return Parse(data)
}

// Load reads a catalog file. empty path returns the embedded catalog.
func Load(fname string) (*Catalog, error) {
	if fname == "" {
		return Default()
	}
	data, err := os.ReadFile(fname) //nolint:gosec // catalog path comes from user config
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", fname, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", fname, err)
	}
	return c, nil
}

// Parse decodes and validates a yaml catalog, filling policy and mode defaults.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range c.Suites {
		s := &c.Suites[i]
		p, err := normalize.ParsePolicy(string(s.Policy))
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w", s.Name, err)
		}
		s.Policy = p
		m, err := ui.ParseMode(string(s.Mode))
		if err != nil {
			return nil, fmt.Errorf("suite %q: %w", s.Name, err)
		}
		s.Mode = m
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks structural rules and returns all violations joined.
func (c *Catalog) Validate() error {
	var errs []error
	if len(c.Suites) == 0 {
		errs = append(errs, errors.New("catalog has no suites"))
	}

	ids := make(map[string]string) // case id -> suite name
	names := make(map[string]bool)
	for _, s := range c.Suites {
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, errors.New("suite with empty name"))
		}
		if names[s.Name] {
			errs = append(errs, fmt.Errorf("duplicate suite %q", s.Name))
		}
		names[s.Name] = true

		for _, tc := range s.Cases {
			if tc.ID == "" {
				errs = append(errs, fmt.Errorf("suite %q: case with empty id", s.Name))
				continue
			}
			if prev, ok := ids[tc.ID]; ok {
				errs = append(errs, fmt.Errorf("duplicate case id %q in suites %q and %q", tc.ID, prev, s.Name))
			}
			ids[tc.ID] = s.Name

			if tc.Input == "" {
				errs = append(errs, fmt.Errorf("case %s: empty input", tc.ID))
			}
			if strings.TrimSpace(tc.Expected) == "" {
				errs = append(errs, fmt.Errorf("case %s: empty expected output", tc.ID))
			}
			if tc.Partial != "" {
				if s.Mode != ui.ModeIncremental {
					errs = append(errs, fmt.Errorf("case %s: partial input requires an incremental suite", tc.ID))
				}
				if len(tc.Partial) >= len(tc.Input) || !strings.HasPrefix(tc.Input, tc.Partial) {
					errs = append(errs, fmt.Errorf("case %s: partial %q is not a proper prefix of input", tc.ID, tc.Partial))
				}
			}
			if tc.ExpectedPartial != "" && tc.Partial == "" {
				errs = append(errs, fmt.Errorf("case %s: expected_partial without partial", tc.ID))
			}
		}
	}
	return errors.Join(errs...)
}

// Filter selects suites by name and cases by id glob (path.Match syntax).
// empty suites or patterns select everything. suites left without cases are dropped.
func (c *Catalog) Filter(suites, patterns []string) (*Catalog, error) {
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad case pattern %q: %w", p, err)
		}
	}

	wantSuite := make(map[string]bool, len(suites))
	for _, s := range suites {
		wantSuite[s] = true
	}

	res := &Catalog{}
	for _, s := range c.Suites {
		if len(wantSuite) > 0 && !wantSuite[s.Name] {
			continue
		}
		sel := Suite{Name: s.Name, Policy: s.Policy, Mode: s.Mode}
		for _, tc := range s.Cases {
			if matchAny(patterns, tc.ID) {
				sel.Cases = append(sel.Cases, tc)
			}
		}
		if len(sel.Cases) > 0 {
			res.Suites = append(res.Suites, sel)
		}
	}
	return res, nil
}

// Size returns the total number of cases.
func (c *Catalog) Size() int {
	n := 0
	for _, s := range c.Suites {
		n += len(s.Cases)
	}
	return n
}

func matchAny(patterns []string, id string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := path.Match(p, id); ok {
			return true
		}
	}
	return false
}
