// Package tabulation turns submitted voting ballots into team ranks and
// speaker points, and projects them according to the release gates.
package tabulation

import (
	"math"
	"sort"
	"time"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

// Input is everything one match's aggregation reads.
type Input struct {
	MatchID     id.MatchID
	Format      models.TeamFormat
	Teams       []*models.MatchTeam
	Allocations []*models.Allocation
	Ballots     []*models.Ballot
	Scores      []*models.SpeakerScore
	Rankings    []*models.TeamRanking
}

// Aggregate computes the result of a match. Only submitted voting ballots
// count. Ranks are assigned slot by slot: the team with most votes for the
// slot wins it, higher averaged points break a vote tie, and anything still
// tied leaves the whole match unresolved with no rank assigned.
func Aggregate(in Input, now time.Time) *models.TabulationResult {
	counted := make(map[id.BallotID]bool, len(in.Ballots))
	for _, b := range in.Ballots {
		if b.IsVoting && b.IsSubmitted {
			counted[b.ID] = true
		}
	}

	result := &models.TabulationResult{
		MatchID:        in.MatchID,
		BallotsCounted: len(counted),
		ComputedAt:     now,
	}

	speakers, means := speakerMeans(in, counted)
	result.Speakers = speakers

	// points holds exact sums; only stored values are rounded.
	points := make(map[id.TeamID]*float64, len(in.Teams))
	for _, sp := range speakers {
		mean, ok := means[sp.AllocationID]
		if !ok {
			continue
		}
		total := mean
		if prev := points[sp.TeamID]; prev != nil {
			total += *prev
		}
		points[sp.TeamID] = &total
	}

	votes := make(map[id.TeamID]map[int]int, len(in.Teams))
	for _, t := range in.Teams {
		votes[t.ID] = map[int]int{}
	}
	for _, r := range in.Rankings {
		if !counted[r.BallotID] {
			continue
		}
		if v, ok := votes[r.TeamID]; ok {
			v[r.Rank]++
		}
	}

	ranks, tied := assignRanks(in.Teams, votes, points)
	if len(counted) == 0 {
		ranks = nil
		tied = teamIDs(in.Teams)
	}
	if tied != nil {
		result.Status = models.TabulationUnresolved
		result.TiedTeams = tied
		ranks = nil
	} else {
		result.Status = models.TabulationResolved
	}

	for _, t := range in.Teams {
		tr := models.TeamResult{
			TeamID:   t.ID,
			Position: t.Position,
			Votes:    votes[t.ID],
		}
		if p := points[t.ID]; p != nil {
			rounded := round2(*p)
			tr.TotalSpeakerPoints = &rounded
		}
		if rank, ok := ranks[t.ID]; ok {
			r := rank
			tr.FinalRank = &r
		}
		result.Teams = append(result.Teams, tr)
	}
	return result
}

// speakerMeans averages each speaker allocation's scores over counted ballots.
// The results carry rounded means; the returned map keeps them exact.
func speakerMeans(in Input, counted map[id.BallotID]bool) ([]models.SpeakerResult, map[id.AllocationID]float64) {
	sums := make(map[id.AllocationID]float64)
	counts := make(map[id.AllocationID]int)
	for _, sc := range in.Scores {
		if !counted[sc.BallotID] {
			continue
		}
		sums[sc.AllocationID] += sc.Score
		counts[sc.AllocationID]++
	}
	var out []models.SpeakerResult
	means := make(map[id.AllocationID]float64, len(counts))
	for _, a := range in.Allocations {
		if a.Role != models.RoleSpeaker || a.TeamID == nil {
			continue
		}
		sp := models.SpeakerResult{
			AllocationID: a.ID,
			TeamID:       *a.TeamID,
			Participant:  a.Participant.String(),
			SpeakerRole:  a.SpeakerRole,
			BallotCount:  counts[a.ID],
		}
		if n := counts[a.ID]; n > 0 {
			means[a.ID] = sums[a.ID] / float64(n)
			rounded := round2(means[a.ID])
			sp.AverageScore = &rounded
		}
		out = append(out, sp)
	}
	return out, means
}

func assignRanks(teams []*models.MatchTeam, votes map[id.TeamID]map[int]int, points map[id.TeamID]*float64) (map[id.TeamID]int, []id.TeamID) {
	remaining := make([]id.TeamID, 0, len(teams))
	for _, t := range teams {
		remaining = append(remaining, t.ID)
	}
	ranks := make(map[id.TeamID]int, len(teams))
	for slot := 1; len(remaining) > 0; slot++ {
		if len(remaining) == 1 {
			ranks[remaining[0]] = slot
			break
		}
		sort.SliceStable(remaining, func(i, j int) bool {
			return better(remaining[i], remaining[j], slot, votes, points)
		})
		if !better(remaining[0], remaining[1], slot, votes, points) {
			var tied []id.TeamID
			for _, t := range remaining {
				if !better(remaining[0], t, slot, votes, points) {
					tied = append(tied, t)
				}
			}
			return nil, tied
		}
		ranks[remaining[0]] = slot
		remaining = remaining[1:]
	}
	return ranks, nil
}

// better reports whether a strictly outranks b for slot.
func better(a, b id.TeamID, slot int, votes map[id.TeamID]map[int]int, points map[id.TeamID]*float64) bool {
	va, vb := votes[a][slot], votes[b][slot]
	if va != vb {
		return va > vb
	}
	pa, pb := points[a], points[b]
	switch {
	case pa == nil:
		return false
	case pb == nil:
		return true
	}
	return *pa > *pb
}

func teamIDs(teams []*models.MatchTeam) []id.TeamID {
	out := make([]id.TeamID, 0, len(teams))
	for _, t := range teams {
		out = append(out, t.ID)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
