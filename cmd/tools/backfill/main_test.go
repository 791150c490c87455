package main

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

var errEmbedderDown = errors.New("embedder down")

type fakeStore struct {
	missing map[string]bool
}

func newFakeStore(sourceIDs ...string) *fakeStore {
	missing := make(map[string]bool, len(sourceIDs))
	for _, id := range sourceIDs {
		missing[id] = true
	}

	return &fakeStore{missing: missing}
}

func (s *fakeStore) SourceIDsMissingEmbedding(_ context.Context, limit int) ([]string, error) {
	ids := make([]string, 0, len(s.missing))
	for id := range s.missing {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	if len(ids) > limit {
		ids = ids[:limit]
	}

	return ids, nil
}

func (s *fakeStore) GetAnalysisBySourceID(_ context.Context, sourceID string) (*domain.AnalyzedPaper, error) {
	return &domain.AnalyzedPaper{
		Paper: domain.Paper{SourceID: sourceID, Title: sourceID},
	}, nil
}

func (s *fakeStore) SetPaperEmbedding(_ context.Context, sourceID string, _ []float32) error {
	delete(s.missing, sourceID)

	return nil
}

// fakeEmbedder fails on the texts in failFor; failAll fails every call.
// The fake store uses the source ID as the paper title, so failFor is
// keyed by source ID.
type fakeEmbedder struct {
	failAll bool
	failFor map[string]bool
	calls   int
}

func (e *fakeEmbedder) GetEmbedding(_ context.Context, text string) ([]float32, error) {
	e.calls++

	if e.failAll || e.failFor[text] {
		return nil, errEmbedderDown
	}

	return []float32{0.1, 0.2}, nil
}

func (e *fakeEmbedder) Dimensions() int {
	return 2
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()

	return &logger
}

func TestBackfillAll_EmbedsAllPapers(t *testing.T) {
	store := newFakeStore("arXiv:1706.03762", "arXiv:1810.04805", "arXiv:2005.14165")
	embedder := &fakeEmbedder{}
	cfg := backfillConfig{batchSize: 2}

	if err := backfillAll(context.Background(), store, embedder, cfg, newTestLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.missing) != 0 {
		t.Errorf("expected all papers embedded, %d still missing", len(store.missing))
	}
}

func TestBackfillAll_StopsWhenBatchMakesNoProgress(t *testing.T) {
	store := newFakeStore("arXiv:1706.03762", "arXiv:1810.04805")
	embedder := &fakeEmbedder{failAll: true}
	cfg := backfillConfig{batchSize: 2}

	err := backfillAll(context.Background(), store, embedder, cfg, newTestLogger())
	if !errors.Is(err, errNoProgress) {
		t.Fatalf("expected errNoProgress, got %v", err)
	}

	// The failing batch must not be re-selected over and over.
	if embedder.calls != 2 {
		t.Errorf("expected 2 embedding attempts, got %d", embedder.calls)
	}
}

func TestBackfillAll_ContinuesPastFailedPaper(t *testing.T) {
	store := newFakeStore("a-fails", "b-ok", "c-ok")
	embedder := &fakeEmbedder{failFor: map[string]bool{"a-fails": true}}
	cfg := backfillConfig{batchSize: 2}

	if err := backfillAll(context.Background(), store, embedder, cfg, newTestLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.missing) != 1 || !store.missing["a-fails"] {
		t.Errorf("expected only the failing paper to stay missing, got %v", store.missing)
	}
}
