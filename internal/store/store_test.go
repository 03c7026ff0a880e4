// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/pdiddy/research-spider/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(query string, collected time.Time, urls ...string) *types.ResearchRun {
	run := &types.ResearchRun{
		Query:       query,
		Domain:      "botany",
		CollectedAt: collected,
	}
	for _, u := range urls {
		run.Sources = append(run.Sources, types.Source{
			Text: "Collected text for " + u,
			Metadata: types.SourceMetadata{
				SourceName:  "Test Source",
				Reliability: types.TierHigh,
				URL:         u,
				Host:        "sanbi.org",
			},
		})
	}
	return run
}

func TestSaveRunAssignsID(t *testing.T) {
	s := testStore(t)
	run := testRun("aloe ferox", time.Time{}, "https://sanbi.org/a")

	if err := s.SaveRun(context.Background(), run); err != nil {
		t.Fatal(err)
	}
	if run.ID == "" {
		t.Error("SaveRun left ID empty")
	}
	if run.CollectedAt.IsZero() {
		t.Error("SaveRun left CollectedAt zero")
	}
}

func TestLatestRunRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := testRun("aloe ferox", time.Now().UTC(), "https://sanbi.org/a", "https://kew.org/b")
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	got, err := s.LatestRun(ctx, "aloe ferox", "botany")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("LatestRun returned nil for cached query")
	}
	if got.ID != run.ID {
		t.Errorf("ID = %q, want %q", got.ID, run.ID)
	}
	if len(got.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2", len(got.Sources))
	}
	if got.Sources[0].Metadata.URL != "https://sanbi.org/a" {
		t.Errorf("source order not preserved: %q first", got.Sources[0].Metadata.URL)
	}
	if got.Sources[1].Metadata.Reliability != types.TierHigh {
		t.Errorf("Reliability = %q after round trip", got.Sources[1].Metadata.Reliability)
	}
}

func TestLatestRunPicksMostRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	older := testRun("aloe ferox", time.Now().UTC().Add(-time.Hour), "https://old.example.org/a")
	newer := testRun("aloe ferox", time.Now().UTC(), "https://new.example.org/a")
	for _, run := range []*types.ResearchRun{older, newer} {
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.LatestRun(ctx, "aloe ferox", "botany")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != newer.ID {
		t.Errorf("LatestRun returned %q, want newest %q", got.ID, newer.ID)
	}
}

func TestLatestRunMissesDifferentQueryOrDomain(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveRun(ctx, testRun("aloe ferox", time.Now().UTC(), "https://sanbi.org/a")); err != nil {
		t.Fatal(err)
	}

	if got, err := s.LatestRun(ctx, "protea", "botany"); err != nil || got != nil {
		t.Errorf("LatestRun(other query) = %v, %v; want nil, nil", got, err)
	}
	if got, err := s.LatestRun(ctx, "aloe ferox", "medical"); err != nil || got != nil {
		t.Errorf("LatestRun(other domain) = %v, %v; want nil, nil", got, err)
	}
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := testRun("aloe ferox", time.Now().UTC().Add(-time.Minute), "https://sanbi.org/a", "https://kew.org/b")
	second := testRun("protea", time.Now().UTC(), "https://sanbi.org/p")
	for _, run := range []*types.ResearchRun{first, second} {
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	infos, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d, want 2", len(infos))
	}
	if infos[0].Query != "protea" {
		t.Errorf("newest run not first: %q", infos[0].Query)
	}
	if infos[1].SourceCount != 2 {
		t.Errorf("SourceCount = %d, want 2", infos[1].SourceCount)
	}
}

func TestDeleteRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := testRun("aloe ferox", time.Now().UTC(), "https://sanbi.org/a")
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteRun(ctx, run.ID); err != nil {
		t.Fatal(err)
	}
	if got, err := s.GetRun(ctx, run.ID); err != nil || got != nil {
		t.Errorf("GetRun after delete = %v, %v; want nil, nil", got, err)
	}
	if err := s.DeleteRun(ctx, "missing"); err == nil {
		t.Error("DeleteRun(missing) returned nil error")
	}
}

func TestClear(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, q := range []string{"aloe ferox", "protea"} {
		if err := s.SaveRun(ctx, testRun(q, time.Now().UTC(), "https://sanbi.org/x")); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Clear(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	infos, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 0 {
		t.Errorf("runs remain after Clear: %d", len(infos))
	}
}
