package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tabrela/pkg/domain-errors"
)

func parsers() map[string]func(string) error {
	return map[string]func(string) error{
		"user":       func(s string) error { _, err := ParseUserID(s); return err },
		"event":      func(s string) error { _, err := ParseEventID(s); return err },
		"series":     func(s string) error { _, err := ParseSeriesID(s); return err },
		"match":      func(s string) error { _, err := ParseMatchID(s); return err },
		"team":       func(s string) error { _, err := ParseTeamID(s); return err },
		"allocation": func(s string) error { _, err := ParseAllocationID(s); return err },
		"ballot":     func(s string) error { _, err := ParseBallotID(s); return err },
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
		{"uppercase", "550E8400-E29B-41D4-A716-446655440000", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"nil uuid", uuid.Nil.String(), true},
		{"not a uuid", "round-1", true},
		{"sql", "'; DROP TABLE ballots;--", true},
		{"path", "../../matches", true},
		{"embedded null", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},
		{"oversized", strings.Repeat("a", 1000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for kind, parse := range parsers() {
				err := parse(tt.input)
				if !tt.wantErr {
					assert.NoError(t, err, kind)
					continue
				}
				require.Error(t, err, kind)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), kind)
			}
		})
	}
}

func TestParseErrorNamesTheKind(t *testing.T) {
	_, err := ParseBallotID("nope")
	assert.ErrorContains(t, err, "ballot")
}

func TestIDsAreJSONStrings(t *testing.T) {
	type payload struct {
		Match MatchID  `json:"match_id"`
		Team  *TeamID  `json:"team_id"`
		User  UserID   `json:"user_id"`
		Many  []UserID `json:"many"`
	}
	team := NewTeamID()
	in := payload{Match: NewMatchID(), Team: &team, User: NewUserID(), Many: []UserID{NewUserID()}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"match_id":"`+in.Match.String()+`"`)

	var out payload
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestNewIDsAreNeverNil(t *testing.T) {
	assert.False(t, NewUserID().IsNil())
	assert.False(t, NewBallotID().IsNil())
	assert.True(t, HistoryID{}.IsNil())
	assert.NotEqual(t, NewAllocationID(), NewAllocationID())
}
