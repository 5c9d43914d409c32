package stats

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/flicktype/internal/model"
	"github.com/verte-zerg/flicktype/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	CharAggsAll      []model.CharAggregate
	CharAggsWindow   []model.CharAggregate
	Layouts          []LayoutTotals
}

// LayoutTotals sums sessions on one layout.
type LayoutTotals struct {
	Layout   string
	Sessions int
	Correct  int
	Mistakes int
	Resolved int
	Aborted  int
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	allIDs := sessionIDs(sessions)
	windowIDs := lastSessionIDs(sessions, cfg.CurveWindow)
	charAggsAll, err := st.ListCharAggregatesForSessions(ctx, allIDs)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate chars: %w", err)
	}
	charAggsWindow, err := st.ListCharAggregatesForSessions(ctx, windowIDs)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate chars: %w", err)
	}

	return Report{
		Sessions:         sessions,
		WindowSessionIDs: windowIDs,
		CharAggsAll:      charAggsAll,
		CharAggsWindow:   charAggsWindow,
		Layouts:          layoutTotals(sessions),
	}, nil
}

func layoutTotals(sessions []model.SessionAggregate) []LayoutTotals {
	byName := map[string]*LayoutTotals{}
	for _, s := range sessions {
		t, ok := byName[s.Layout]
		if !ok {
			t = &LayoutTotals{Layout: s.Layout}
			byName[s.Layout] = t
		}
		t.Sessions++
		t.Correct += s.Correct
		t.Mistakes += s.Incorrect
		t.Resolved += s.Resolved
		t.Aborted += s.Aborted
	}
	out := make([]LayoutTotals, 0, len(byName))
	for _, t := range byName {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Layout < out[j].Layout })
	return out
}

// RenderLayoutTable prints per-layout totals.
func RenderLayoutTable(w io.Writer, totals []LayoutTotals) error {
	if len(totals) == 0 {
		return nil
	}
	tbl := newTable(
		column{title: "Layout"},
		column{title: "Sessions", right: true},
		column{title: "Correct", right: true},
		column{title: "Mistakes", right: true},
		column{title: "Gestures", right: true},
		column{title: "Aborted", right: true},
	)
	for _, t := range totals {
		tbl.add(
			t.Layout,
			fmt.Sprintf("%d", t.Sessions),
			fmt.Sprintf("%d", t.Correct),
			fmt.Sprintf("%d", t.Mistakes),
			fmt.Sprintf("%d", t.Resolved+t.Aborted),
			fmt.Sprintf("%d", t.Aborted),
		)
	}
	return tbl.write(w)
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

func lastSessionIDs(sessions []model.SessionAggregate, window int) []int64 {
	if window <= 0 || len(sessions) <= window {
		return sessionIDs(sessions)
	}
	return sessionIDs(sessions[len(sessions)-window:])
}
