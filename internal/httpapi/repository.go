package httpapi

import (
	"context"

	"github.com/airesearchhub/research-hub/internal/core/domain"
	"github.com/airesearchhub/research-hub/internal/search"
)

// Repository is the storage surface the API handlers depend on.
type Repository interface {
	StoreAnalysis(ctx context.Context, paper domain.Paper, analysis domain.Analysis) (*domain.AnalyzedPaper, error)
	GetAnalysisBySourceID(ctx context.Context, sourceID string) (*domain.AnalyzedPaper, error)
	RecentAnalyses(ctx context.Context, limit int) ([]domain.AnalyzedPaper, error)
	PaperStats(ctx context.Context) (*domain.PaperStats, error)
	SetPaperEmbedding(ctx context.Context, sourceID string, embedding []float32) error
	SimilarPapers(ctx context.Context, sourceID string, limit int) ([]domain.AnalyzedPaper, error)

	CreateProject(ctx context.Context, name, description string) (*domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	UpdateProject(ctx context.Context, id, name, description string) (*domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
	AddProjectUser(ctx context.Context, projectID, userID string) error
	RemoveProjectUser(ctx context.Context, projectID, userID string) error
	ProjectUsers(ctx context.Context, projectID string) ([]domain.User, error)
	ProjectDatasets(ctx context.Context, projectID string) ([]domain.Dataset, error)

	CreateDataset(ctx context.Context, dataset domain.Dataset) (*domain.Dataset, error)
	GetDataset(ctx context.Context, id string) (*domain.Dataset, error)
	UpdateDataset(ctx context.Context, dataset domain.Dataset) (*domain.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error

	CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Searcher fans queries out to the paper search providers.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// PaperSource resolves a single paper's details by identifier.
type PaperSource interface {
	PaperDetails(ctx context.Context, paperID string) (*domain.Paper, error)
}

// PageExtractor backfills an abstract from a paper's landing page.
type PageExtractor interface {
	ExtractAbstract(ctx context.Context, rawURL string) (string, error)
}
