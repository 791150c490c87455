package domain

import "time"

// Paper represents a search result from an external paper source,
// normalized to a common shape.
type Paper struct {
	SourceID  string   `json:"source_id,omitempty"`
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Authors   []string `json:"authors"`
	Year      int      `json:"year,omitempty"`
	Venue     string   `json:"venue"`
	URL       string   `json:"url"`
	Citations int      `json:"citations"`
	Source    string   `json:"source"`
}

// Paper source constants.
const (
	SourceArxiv           = "arXiv"
	SourceSemanticScholar = "Semantic Scholar"
)

// Analysis holds the structured output of an LLM paper analysis.
type Analysis struct {
	Summary      string   `json:"summary"`
	KeyFindings  []string `json:"key_findings"`
	Methodology  string   `json:"methodology"`
	Applications []string `json:"applications"`
	FutureWork   []string `json:"future_work"`
}

// AnalyzedPaper is a stored paper together with its analysis.
type AnalyzedPaper struct {
	ID        string    `json:"id"`
	Paper     Paper     `json:"paper"`
	Analysis  Analysis  `json:"analysis"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a registered hub user.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project groups datasets and users working on a research topic.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Dataset is a file-backed dataset attached to a project.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	OwnerID     string    `json:"owner_id,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaperStats summarizes analyzed papers per source.
type PaperStats struct {
	TotalPapers           int `json:"total_papers"`
	ArxivPapers           int `json:"arxiv_papers"`
	SemanticScholarPapers int `json:"semantic_scholar_papers"`
}
