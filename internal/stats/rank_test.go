package stats

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/flicktype/internal/model"
)

func TestRankWeakCharsSkipsThinSamples(t *testing.T) {
	ranked := RankWeakChars([]model.CharAggregate{
		{Char: "a", Correct: 9, Incorrect: 1},
		{Char: "b", Correct: 0, Incorrect: 2},
		{Char: "c", Correct: 5, Incorrect: 0},
	}, 3)
	var got []string
	for _, w := range ranked {
		got = append(got, w.Char)
	}
	if diff := cmp.Diff([]string{"a", "c"}, got); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestRankWeakCharsFallsBackToAll(t *testing.T) {
	ranked := RankWeakChars([]model.CharAggregate{
		{Char: "x", Correct: 1},
		{Char: "y", Incorrect: 1},
	}, 3)
	if len(ranked) != 2 || ranked[0].Char != "y" {
		t.Fatalf("unexpected ranking %+v", ranked)
	}
}

func TestRankWeakCharsWeighsLatency(t *testing.T) {
	ranked := RankWeakChars([]model.CharAggregate{
		{Char: "fast", Correct: 9, Incorrect: 1, LatencySumMs: 2000, LatencyCount: 10},
		{Char: "slow", Correct: 9, Incorrect: 1, LatencySumMs: 8000, LatencyCount: 10},
	}, 1)
	if ranked[0].Char != "slow" {
		t.Fatalf("expected slow first, got %+v", ranked)
	}
	if ranked[0].AvgLatencyMs != 800 || math.Abs(ranked[0].Score-(0.1+latencyWeight)) > 1e-9 {
		t.Fatalf("unexpected score %+v", ranked[0])
	}
}

func TestSelectWeakChars(t *testing.T) {
	weak := SelectWeakChars([]model.CharAggregate{
		{Char: "a", Correct: 9, Incorrect: 1},
		{Char: "b", Correct: 2, Incorrect: 3},
		{Char: "c", Correct: 5, Incorrect: 0},
	}, 1)
	if _, ok := weak['b']; !ok || len(weak) != 1 {
		t.Fatalf("weak = %v", weak)
	}
	if all := SelectWeakChars([]model.CharAggregate{{Char: "a", Correct: 3}, {Char: "b", Correct: 3}}, 0); len(all) != 2 {
		t.Fatalf("expected all chars for top 0, got %v", all)
	}
}

func TestTopCharsByFrequency(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "b", Correct: 3, Incorrect: 1},
		{Char: "a", Correct: 2, Incorrect: 2},
		{Char: "c", Correct: 1, Incorrect: 0},
	}
	if diff := cmp.Diff([]string{"a", "b"}, TopCharsByFrequency(aggs, 2)); diff != "" {
		t.Fatalf("top mismatch (-want +got):\n%s", diff)
	}
	if got := TopCharsByFrequency(aggs, 10); len(got) != 3 {
		t.Fatalf("expected all 3 chars, got %v", got)
	}
}
