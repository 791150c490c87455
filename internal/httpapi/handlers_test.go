package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/airesearchhub/research-hub/internal/analysis"
	"github.com/airesearchhub/research-hub/internal/core/domain"
	"github.com/airesearchhub/research-hub/internal/platform/config"
	"github.com/airesearchhub/research-hub/internal/search"
	db "github.com/airesearchhub/research-hub/internal/storage"
)

const (
	testOrigin   = "http://localhost:3000"
	testPaperID  = "arXiv:1706.03762"
	testProjID   = "11111111-1111-1111-1111-111111111111"
	testUserID   = "22222222-2222-2222-2222-222222222222"
	expectedFmt  = "expected status %d, got %d"
	decodeErrFmt = "failed to decode response: %v"
)

var errStorageDown = errors.New("storage down")

type fakeRepo struct {
	analyses map[string]*domain.AnalyzedPaper
	projects map[string]*domain.Project
	users    map[string]*domain.User
	datasets map[string]*domain.Dataset

	stored     []domain.Paper
	embeddings map[string][]float32
	failing    bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		analyses:   map[string]*domain.AnalyzedPaper{},
		projects:   map[string]*domain.Project{},
		users:      map[string]*domain.User{},
		datasets:   map[string]*domain.Dataset{},
		embeddings: map[string][]float32{},
	}
}

func (f *fakeRepo) StoreAnalysis(_ context.Context, paper domain.Paper, a domain.Analysis) (*domain.AnalyzedPaper, error) {
	if f.failing {
		return nil, errStorageDown
	}

	if existing, ok := f.analyses[paper.SourceID]; ok {
		return existing, nil
	}

	stored := &domain.AnalyzedPaper{ID: paper.SourceID, Paper: paper, Analysis: a}
	f.analyses[paper.SourceID] = stored
	f.stored = append(f.stored, paper)

	return stored, nil
}

func (f *fakeRepo) GetAnalysisBySourceID(_ context.Context, sourceID string) (*domain.AnalyzedPaper, error) {
	if f.failing {
		return nil, errStorageDown
	}

	if existing, ok := f.analyses[sourceID]; ok {
		return existing, nil
	}

	return nil, db.ErrNotFound
}

func (f *fakeRepo) RecentAnalyses(_ context.Context, limit int) ([]domain.AnalyzedPaper, error) {
	if f.failing {
		return nil, errStorageDown
	}

	results := make([]domain.AnalyzedPaper, 0, limit)
	for _, a := range f.analyses {
		results = append(results, *a)
	}

	return results, nil
}

func (f *fakeRepo) PaperStats(_ context.Context) (*domain.PaperStats, error) {
	if f.failing {
		return nil, errStorageDown
	}

	return &domain.PaperStats{TotalPapers: len(f.analyses)}, nil
}

func (f *fakeRepo) SetPaperEmbedding(_ context.Context, sourceID string, embedding []float32) error {
	f.embeddings[sourceID] = embedding

	return nil
}

func (f *fakeRepo) SimilarPapers(_ context.Context, sourceID string, _ int) ([]domain.AnalyzedPaper, error) {
	if _, ok := f.embeddings[sourceID]; !ok {
		return nil, db.ErrNotFound
	}

	return []domain.AnalyzedPaper{}, nil
}

func (f *fakeRepo) CreateProject(_ context.Context, name, description string) (*domain.Project, error) {
	project := &domain.Project{ID: testProjID, Name: name, Description: description}
	f.projects[project.ID] = project

	return project, nil
}

func (f *fakeRepo) GetProject(_ context.Context, id string) (*domain.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}

	return nil, db.ErrNotFound
}

func (f *fakeRepo) ListProjects(_ context.Context) ([]domain.Project, error) {
	results := []domain.Project{}
	for _, p := range f.projects {
		results = append(results, *p)
	}

	return results, nil
}

func (f *fakeRepo) UpdateProject(_ context.Context, id, name, description string) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, db.ErrNotFound
	}

	p.Name = name
	p.Description = description

	return p, nil
}

func (f *fakeRepo) DeleteProject(_ context.Context, id string) error {
	if _, ok := f.projects[id]; !ok {
		return db.ErrNotFound
	}

	delete(f.projects, id)

	return nil
}

func (f *fakeRepo) AddProjectUser(_ context.Context, projectID, userID string) error {
	if _, ok := f.projects[projectID]; !ok {
		return db.ErrNotFound
	}

	if _, ok := f.users[userID]; !ok {
		return db.ErrNotFound
	}

	return nil
}

func (f *fakeRepo) RemoveProjectUser(_ context.Context, projectID, _ string) error {
	if _, ok := f.projects[projectID]; !ok {
		return db.ErrNotFound
	}

	return nil
}

func (f *fakeRepo) ProjectUsers(_ context.Context, _ string) ([]domain.User, error) {
	return []domain.User{}, nil
}

func (f *fakeRepo) ProjectDatasets(_ context.Context, _ string) ([]domain.Dataset, error) {
	return []domain.Dataset{}, nil
}

func (f *fakeRepo) CreateDataset(_ context.Context, dataset domain.Dataset) (*domain.Dataset, error) {
	dataset.ID = "33333333-3333-3333-3333-333333333333"
	f.datasets[dataset.ID] = &dataset

	return &dataset, nil
}

func (f *fakeRepo) GetDataset(_ context.Context, id string) (*domain.Dataset, error) {
	if d, ok := f.datasets[id]; ok {
		return d, nil
	}

	return nil, db.ErrNotFound
}

func (f *fakeRepo) UpdateDataset(_ context.Context, dataset domain.Dataset) (*domain.Dataset, error) {
	d, ok := f.datasets[dataset.ID]
	if !ok {
		return nil, db.ErrNotFound
	}

	d.Name = dataset.Name
	d.Description = dataset.Description

	return d, nil
}

func (f *fakeRepo) DeleteDataset(_ context.Context, id string) error {
	if _, ok := f.datasets[id]; !ok {
		return db.ErrNotFound
	}

	delete(f.datasets, id)

	return nil
}

func (f *fakeRepo) CreateUser(_ context.Context, username, email, passwordHash string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return nil, db.ErrAlreadyExists
		}
	}

	user := &domain.User{ID: testUserID, Username: username, Email: email, PasswordHash: passwordHash}
	f.users[user.ID] = user

	return user, nil
}

func (f *fakeRepo) GetUser(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}

	return nil, db.ErrNotFound
}

type fakeSearcher struct {
	resp *search.Response
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) (*search.Response, error) {
	if f.err != nil {
		return nil, f.err
	}

	resp := *f.resp
	resp.Query = req.Query

	return &resp, nil
}

type fakePaperSource struct {
	papers map[string]*domain.Paper
}

func (f *fakePaperSource) PaperDetails(_ context.Context, paperID string) (*domain.Paper, error) {
	if p, ok := f.papers[paperID]; ok {
		paper := *p

		return &paper, nil
	}

	return nil, search.ErrPaperNotFound
}

type fakeAnalyzer struct {
	err error
}

func (f *fakeAnalyzer) Model() string { return "fake" }

func (f *fakeAnalyzer) Health(_ context.Context) error { return f.err }

func (f *fakeAnalyzer) AnalyzePaper(_ context.Context, _ domain.Paper) (domain.Analysis, error) {
	if f.err != nil {
		return domain.Analysis{}, f.err
	}

	return domain.Analysis{Summary: "fake summary"}, nil
}

type testEnv struct {
	repo     *fakeRepo
	searcher *fakeSearcher
	papers   *fakePaperSource
	analyzer *fakeAnalyzer
	server   *Server
}

func newTestEnv() *testEnv {
	logger := zerolog.Nop()

	env := &testEnv{
		repo: newFakeRepo(),
		searcher: &fakeSearcher{resp: &search.Response{
			Total:   1,
			Results: []domain.Paper{{SourceID: testPaperID, Title: "Attention Is All You Need"}},
		}},
		papers: &fakePaperSource{papers: map[string]*domain.Paper{
			testPaperID: {
				SourceID: "resolved-canonical-id",
				Title:    "Attention Is All You Need",
				Abstract: "The dominant sequence transduction models...",
				URL:      "https://arxiv.org/abs/1706.03762",
			},
		}},
		analyzer: &fakeAnalyzer{},
	}

	cfg := &config.Config{
		CORSOrigin:         testOrigin,
		SearchDefaultLimit: 20,
		SearchMaxLimit:     100,
		AnalysisTimeout:    5 * time.Second,
	}

	env.server = NewServer(cfg, env.repo, env.searcher, env.papers, env.analyzer, nil, nil, &logger)

	return env
}

func doRequest(t *testing.T, env *testEnv, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}

		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(rec, req)

	return rec
}

func TestHandleRoot(t *testing.T) {
	env := newTestEnv()

	rec := doRequest(t, env, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf(expectedFmt, http.StatusOK, rec.Code)
	}

	if !strings.Contains(rec.Body.String(), "AI Research Hub") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandleSearch_Success(t *testing.T) {
	env := newTestEnv()

	rec := doRequest(t, env, http.MethodGet, "/api/v1/search?query=attention", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf(expectedFmt, http.StatusOK, rec.Code)
	}

	var resp search.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf(decodeErrFmt, err)
	}

	if resp.Total != 1 || resp.Query != "attention" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	env := newTestEnv()

	rec := doRequest(t, env, http.MethodGet, "/api/v1/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf(expectedFmt, http.StatusBadRequest, rec.Code)
	}
}

func TestHandleSearch_UpstreamFailure(t *testing.T) {
	env := newTestEnv()
	env.searcher.err = errors.New("all providers down")

	rec := doRequest(t, env, http.MethodGet, "/api/v1/search?query=attention", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf(expectedFmt, http.StatusBadGateway, rec.Code)
	}
}

func TestHandlePaper_NotFound(t *testing.T) {
	env := newTestEnv()

	rec := doRequest(t, env, http.MethodGet, "/api/v1/paper/arXiv:0000.00000", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf(expectedFmt, http.StatusNotFound, rec.Code)
	}
}

func TestHandleAnalyze_StoresUnderRequestedID(t *testing.T) {
	env := newTestEnv()

	rec := doRequest(t, env, http.MethodPost, "/api/v1/analyze/"+testPaperID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf(expectedFmt, http.StatusOK, rec.Code)
	}

	var stored domain.AnalyzedPaper
	if err := json.Unmarshal(rec.Body.Bytes(), &stored); err != nil {
		t.Fatalf(decodeErrFmt, err)
	}

	// The requested identifier, not the canonical one the source
	// reports, keys the stored row.
	if stored.Paper.SourceID != testPaperID {
		t.Errorf("expected source ID %q, got %q", testPaperID, stored.Paper.SourceID)
	}

	if stored.Analysis.Summary != "fake summary" {
		t.Errorf("unexpected analysis: %+v", stored.Analysis)
	}
}

func TestHandleAnalyze_ReturnsCachedAnalysis(t *testing.T) {
	env := newTestEnv()

	first := doRequest(t, env, http.MethodPost, "/api/v1/analyze/"+testPaperID, nil)
	if first.Code != http.StatusOK {
		t.Fatalf(expectedFmt, http.StatusOK, first.Code)
	}

	env.analyzer.err = errors.New("model should not be called again")

	second := doRequest(t, env, http.MethodPost, "/api/v1/analyze/"+testPaperID, nil)
	if second.Code != http.StatusOK {
		t.Fatalf(expectedFmt, http.StatusOK, second.Code)
	}
}

func TestHandleAnalyze_UnknownPaper(t *testing.T) {
	env := newTestEnv()

	rec := doRequest(t, env, http.MethodPost, "/api/v1/analyze/arXiv:0000.00000", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf(expectedFmt, http.StatusNotFound, rec.Code)
	}
}

func TestHandleAnalyze_CircuitBreakerOpen(t *testing.T) {
	env := newTestEnv()
	env.analyzer.err = analysis.ErrCircuitBreakerOpen

	rec := doRequest(t, env, http.MethodPost, "/api/v1/analyze/"+testPaperID, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf(expectedFmt, http.StatusServiceUnavailable, rec.Code)
	}
}

func TestHandleSimilar_NoEmbedding(t *testing.T) {
	env := newTestEnv()

	rec := doRequest(t, env, http.MethodGet, "/api/v1/paper/unknown/similar", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf(expectedFmt, http.StatusNotFound, rec.Code)
	}
}

func TestHandleStats(t *testing.T) {
	env := newTestEnv()

	rec := doRequest(t, env, http.MethodGet, "/api/v1/analyses/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf(expectedFmt, http.StatusOK, rec.Code)
	}

	var stats domain.PaperStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf(decodeErrFmt, err)
	}
}

func TestHandleOllamaHealth_Unhealthy(t *testing.T) {
	env := newTestEnv()
	env.analyzer.err = errors.New("connection refused")

	rec := doRequest(t, env, http.MethodGet, "/api/v1/health/ollama", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf(expectedFmt, http.StatusServiceUnavailable, rec.Code)
	}
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv()

	created := doRequest(t, env, http.MethodPost, "/api/v1/projects", projectRequest{Name: "LLM Eval"})
	if created.Code != http.StatusCreated {
		t.Fatalf(expectedFmt, http.StatusCreated, created.Code)
	}

	var project domain.Project
	if err := json.Unmarshal(created.Body.Bytes(), &project); err != nil {
		t.Fatalf(decodeErrFmt, err)
	}

	got := doRequest(t, env, http.MethodGet, "/api/v1/projects/"+project.ID, nil)
	if got.Code != http.StatusOK {
		t.Fatalf(expectedFmt, http.StatusOK, got.Code)
	}

	updated := doRequest(t, env, http.MethodPut, "/api/v1/projects/"+project.ID, projectRequest{Name: "Renamed"})
	if updated.Code != http.StatusOK {
		t.Fatalf(expectedFmt, http.StatusOK, updated.Code)
	}

	member := doRequest(t, env, http.MethodPost, "/api/v1/users", userRequest{Username: "alice", Email: "alice@example.com"})
	if member.Code != http.StatusCreated {
		t.Fatalf(expectedFmt, http.StatusCreated, member.Code)
	}

	addUser := doRequest(t, env, http.MethodPost, "/api/v1/projects/"+project.ID+"/users/"+testUserID, nil)
	if addUser.Code != http.StatusNoContent {
		t.Fatalf(expectedFmt, http.StatusNoContent, addUser.Code)
	}

	deleted := doRequest(t, env, http.MethodDelete, "/api/v1/projects/"+project.ID, nil)
	if deleted.Code != http.StatusNoContent {
		t.Fatalf(expectedFmt, http.StatusNoContent, deleted.Code)
	}

	gone := doRequest(t, env, http.MethodGet, "/api/v1/projects/"+project.ID, nil)
	if gone.Code != http.StatusNotFound {
		t.Fatalf(expectedFmt, http.StatusNotFound, gone.Code)
	}
}

func TestAddProjectUser_UnknownUser(t *testing.T) {
	env := newTestEnv()

	created := doRequest(t, env, http.MethodPost, "/api/v1/projects", projectRequest{Name: "LLM Eval"})
	if created.Code != http.StatusCreated {
		t.Fatalf(expectedFmt, http.StatusCreated, created.Code)
	}

	var project domain.Project
	if err := json.Unmarshal(created.Body.Bytes(), &project); err != nil {
		t.Fatalf(decodeErrFmt, err)
	}

	rec := doRequest(t, env, http.MethodPost, "/api/v1/projects/"+project.ID+"/users/"+testUserID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf(expectedFmt, http.StatusNotFound, rec.Code)
	}
}

func TestCreateProject_MissingName(t *testing.T) {
	env := newTestEnv()

	rec := doRequest(t, env, http.MethodPost, "/api/v1/projects", projectRequest{Name: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf(expectedFmt, http.StatusBadRequest, rec.Code)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	env := newTestEnv()

	body := userRequest{Username: "alice", Email: "alice@example.com"}

	first := doRequest(t, env, http.MethodPost, "/api/v1/users", body)
	if first.Code != http.StatusCreated {
		t.Fatalf(expectedFmt, http.StatusCreated, first.Code)
	}

	second := doRequest(t, env, http.MethodPost, "/api/v1/users", body)
	if second.Code != http.StatusConflict {
		t.Fatalf(expectedFmt, http.StatusConflict, second.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", testOrigin)
	rec := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Errorf("expected allow-origin %q, got %q", testOrigin, got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", testOrigin)
	rec := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf(expectedFmt, http.StatusNoContent, rec.Code)
	}
}

func TestCORSUnknownOriginGetsNoHeaders(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow-origin header, got %q", got)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/api/v1/search", "search"},
		{"/api/v1/paper/arXiv:1706.03762", "paper"},
		{"/api/v1/projects/abc/users", "projects"},
		{"/", "root"},
	}

	for _, tt := range tests {
		if got := routeLabel(tt.path); got != tt.expected {
			t.Errorf("routeLabel(%q): expected %q, got %q", tt.path, tt.expected, got)
		}
	}
}
