package allocation

import (
	"errors"
	"fmt"
	"os"
	"sort"
	stdstrings "strings"

	"gopkg.in/yaml.v3"

	"tabrela/internal/models"
	"tabrela/pkg/platform/strings"
)

// Ruleset is a named, ordered list of rules. The first failing rule decides
// the error.
type Ruleset struct {
	Name  string
	Rules []Rule
}

func (rs Ruleset) Check(p Proposal) error {
	for _, r := range rs.Rules {
		if err := r.Check(p); err != nil {
			return err
		}
	}
	return nil
}

const (
	RulesetStrict   = "strict"
	RulesetPerRole  = "per_role"
	RulesetFriendly = "friendly"
)

var baseRules = []string{RulePlacementShape, RuleTeamInMatch, RuleReplySpeeches, RuleSpeakerSeatFree}

func builtinRulesets() map[string][]string {
	return map[string][]string{
		RulesetStrict:   append(append([]string{}, baseRules...), RuleSpeakerBench, RuleOnePerMatch),
		RulesetPerRole:  append(append([]string{}, baseRules...), RuleUniqueRole),
		RulesetFriendly: append(append([]string{}, baseRules...), RuleUniqueSpeakerPosition),
	}
}

// Catalog resolves the ruleset governing a series.
type Catalog struct {
	rulesets map[string]Ruleset
	fallback string
}

// NewCatalog builds the built-in rulesets plus any extra definitions.
// Extra definitions replace built-ins of the same name.
func NewCatalog(fallback string, extra map[string][]string) (*Catalog, error) {
	defs := builtinRulesets()
	for name, rules := range extra {
		defs[name] = rules
	}
	c := &Catalog{rulesets: make(map[string]Ruleset, len(defs)), fallback: fallback}
	for name, ruleNames := range defs {
		rs := Ruleset{Name: name}
		for _, rn := range ruleNames {
			r, ok := LookupRule(rn)
			if !ok {
				return nil, fmt.Errorf("ruleset %s: unknown rule %q", name, rn)
			}
			rs.Rules = append(rs.Rules, r)
		}
		c.rulesets[name] = rs
	}
	if _, ok := c.rulesets[fallback]; !ok {
		return nil, fmt.Errorf("default ruleset %q is not defined", fallback)
	}
	return c, nil
}

type rulesetFile struct {
	Rulesets []struct {
		Name  string   `yaml:"name"`
		Rules []string `yaml:"rules"`
	} `yaml:"rulesets"`
}

// LoadCatalog reads extra rulesets from a YAML file of the form
//
//	rulesets:
//	  - name: league
//	    rules: [placement_shape, team_in_match, unique_role, no_guests]
//
// An empty path yields the built-ins only.
func LoadCatalog(path, fallback string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(fallback, nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulesets file: %w", err)
	}
	return ParseCatalog(data, fallback)
}

func ParseCatalog(data []byte, fallback string) (*Catalog, error) {
	var file rulesetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rulesets file: %w", err)
	}
	extra := make(map[string][]string, len(file.Rulesets))
	for _, def := range file.Rulesets {
		name := stdstrings.TrimSpace(def.Name)
		if name == "" {
			return nil, errors.New("ruleset without a name")
		}
		rules := strings.DedupeAndTrimLower(def.Rules)
		if len(rules) == 0 {
			return nil, fmt.Errorf("ruleset %s has no rules", name)
		}
		extra[name] = rules
	}
	return NewCatalog(fallback, extra)
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.rulesets[name]
	return ok
}

// Names lists the known rulesets in name order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.rulesets))
	for name := range c.rulesets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// For returns the series' ruleset, falling back to the deployment default.
func (c *Catalog) For(series *models.MatchSeries) Ruleset {
	if series != nil && series.Ruleset != "" {
		if rs, ok := c.rulesets[series.Ruleset]; ok {
			return rs
		}
	}
	return c.rulesets[c.fallback]
}
