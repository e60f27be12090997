package allocation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabrela/internal/models"
)

func ruleNames(rs Ruleset) []string {
	out := make([]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		out = append(out, r.Name())
	}
	return out
}

func TestBuiltinCatalog(t *testing.T) {
	c, err := NewCatalog(RulesetStrict, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{RulesetFriendly, RulesetPerRole, RulesetStrict}, c.Names())
	assert.Equal(t, []string{
		RulePlacementShape, RuleTeamInMatch, RuleReplySpeeches, RuleSpeakerSeatFree,
		RuleSpeakerBench, RuleOnePerMatch,
	}, ruleNames(c.For(nil)))

	friendly := &models.MatchSeries{Ruleset: RulesetFriendly}
	assert.Equal(t, RulesetFriendly, c.For(friendly).Name)

	unknown := &models.MatchSeries{Ruleset: "retired"}
	assert.Equal(t, RulesetStrict, c.For(unknown).Name, "unknown names fall back to the default")
}

func TestNewCatalogRejectsUnknownDefault(t *testing.T) {
	_, err := NewCatalog("lenient", nil)
	assert.ErrorContains(t, err, "lenient")
}

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "custom ruleset",
			yaml: "rulesets:\n  - name: league\n    rules: [placement_shape, team_in_match, unique_role, no_guests]\n",
		},
		{
			name: "repeated and padded rule names",
			yaml: "rulesets:\n  - name: league\n    rules: [' Placement_Shape', placement_shape, team_in_match, unique_role, NO_GUESTS, unique_role]\n",
		},
		{
			name:    "blank rules only",
			yaml:    "rulesets:\n  - name: league\n    rules: ['  ', '']\n",
			wantErr: "has no rules",
		},
		{
			name:    "unknown rule",
			yaml:    "rulesets:\n  - name: league\n    rules: [placement_shape, seniority]\n",
			wantErr: `unknown rule "seniority"`,
		},
		{
			name:    "missing name",
			yaml:    "rulesets:\n  - rules: [placement_shape]\n",
			wantErr: "without a name",
		},
		{
			name:    "no rules",
			yaml:    "rulesets:\n  - name: empty\n",
			wantErr: "has no rules",
		},
		{
			name:    "malformed",
			yaml:    "rulesets: [name: {",
			wantErr: "parse rulesets file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCatalog([]byte(tt.yaml), RulesetStrict)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, c.Has("league"))
			assert.Equal(t, []string{RulePlacementShape, RuleTeamInMatch, RuleUniqueRole, RuleNoGuests},
				ruleNames(c.For(&models.MatchSeries{Ruleset: "league"})))
		})
	}
}

func TestParseCatalogOverridesBuiltin(t *testing.T) {
	c, err := ParseCatalog([]byte("rulesets:\n  - name: strict\n    rules: [placement_shape]\n"), RulesetStrict)
	require.NoError(t, err)
	assert.Equal(t, []string{RulePlacementShape}, ruleNames(c.For(nil)))
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("", RulesetPerRole)
	require.NoError(t, err)
	assert.Equal(t, RulesetPerRole, c.For(nil).Name)

	path := filepath.Join(t.TempDir(), "rulesets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rulesets:\n  - name: open\n    rules: [placement_shape, team_in_match]\n"), 0o600))
	c, err = LoadCatalog(path, "open")
	require.NoError(t, err)
	assert.Equal(t, "open", c.For(nil).Name)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"), RulesetStrict)
	assert.ErrorContains(t, err, "read rulesets file")
}
