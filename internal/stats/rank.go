package stats

import (
	"cmp"
	"slices"

	"github.com/verte-zerg/flicktype/internal/model"
)

// MinWeakAttempts is the number of attempts a character needs before its
// accuracy is trusted for weak-char ranking.
const MinWeakAttempts = 3

// latencyWeight scales the slowness term of the weak score against the
// error rate.
const latencyWeight = 0.5

// WeakChar is one ranked character.
type WeakChar struct {
	Char         string
	Attempts     int
	ErrorRate    float64
	AvgLatencyMs float64
	Score        float64
}

// RankWeakChars orders characters from weakest to strongest. The score is
// the error rate plus the character's latency relative to the slowest one.
// Characters below minAttempts are ignored unless none qualify.
func RankWeakChars(aggs []model.CharAggregate, minAttempts int) []WeakChar {
	ranked := make([]WeakChar, 0, len(aggs))
	for _, agg := range aggs {
		n := agg.Correct + agg.Incorrect
		if n < minAttempts {
			continue
		}
		ranked = append(ranked, weakChar(agg))
	}
	if len(ranked) == 0 {
		for _, agg := range aggs {
			ranked = append(ranked, weakChar(agg))
		}
	}

	slowest := 0.0
	for _, w := range ranked {
		slowest = max(slowest, w.AvgLatencyMs)
	}
	for i := range ranked {
		ranked[i].Score = ranked[i].ErrorRate
		if slowest > 0 {
			ranked[i].Score += latencyWeight * ranked[i].AvgLatencyMs / slowest
		}
	}
	slices.SortFunc(ranked, func(a, b WeakChar) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Char, b.Char)
	})
	return ranked
}

func weakChar(agg model.CharAggregate) WeakChar {
	return WeakChar{
		Char:         agg.Char,
		Attempts:     agg.Correct + agg.Incorrect,
		ErrorRate:    1 - accuracy(agg),
		AvgLatencyMs: avgLatency(agg),
	}
}

// SelectWeakChars returns the first rune of the top weakest characters.
// top <= 0 selects all of them.
func SelectWeakChars(aggs []model.CharAggregate, top int) map[rune]struct{} {
	set := map[rune]struct{}{}
	ranked := RankWeakChars(aggs, MinWeakAttempts)
	if top <= 0 || top > len(ranked) {
		top = len(ranked)
	}
	for _, w := range ranked[:top] {
		for _, r := range w.Char {
			set[r] = struct{}{}
			break
		}
	}
	return set
}

// TopCharsByFrequency returns the n most practised characters.
func TopCharsByFrequency(aggs []model.CharAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	sorted := slices.Clone(aggs)
	slices.SortFunc(sorted, func(a, b model.CharAggregate) int {
		if c := cmp.Compare(b.Correct+b.Incorrect, a.Correct+a.Incorrect); c != 0 {
			return c
		}
		return cmp.Compare(a.Char, b.Char)
	})
	out := make([]string, 0, min(n, len(sorted)))
	for _, agg := range sorted[:min(n, len(sorted))] {
		out = append(out, agg.Char)
	}
	return out
}

func accuracy(agg model.CharAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}

func avgLatency(agg model.CharAggregate) float64 {
	if agg.LatencyCount == 0 {
		return 0
	}
	return float64(agg.LatencySumMs) / float64(agg.LatencyCount)
}
