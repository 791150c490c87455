package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const analyzedPaperColumns = `
	id, source_id, title, abstract, authors, year, venue, url, citations, source,
	summary, key_findings, methodology, applications, future_work,
	created_at, updated_at`

// StoreAnalysis inserts an analyzed paper keyed by its source ID.
// When the paper was already analyzed the existing row is returned
// unchanged, so concurrent analyze requests converge on one result.
func (db *DB) StoreAnalysis(ctx context.Context, paper domain.Paper, analysis domain.Analysis) (*domain.AnalyzedPaper, error) {
	row := db.Pool.QueryRow(ctx, `
		INSERT INTO analyzed_papers (
			source_id, title, abstract, authors, year, venue, url, citations, source,
			summary, key_findings, methodology, applications, future_work
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (source_id) DO NOTHING
		RETURNING `+analyzedPaperColumns,
		paper.SourceID,
		SanitizeUTF8(paper.Title),
		toText(paper.Abstract),
		toStringArray(paper.Authors),
		toInt4(paper.Year),
		toText(paper.Venue),
		toText(paper.URL),
		paper.Citations,
		paper.Source,
		toText(analysis.Summary),
		toStringArray(analysis.KeyFindings),
		toText(analysis.Methodology),
		toStringArray(analysis.Applications),
		toStringArray(analysis.FutureWork),
	)

	stored, err := scanAnalyzedPaper(row)
	if err == nil {
		return stored, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	// Conflict: another request already stored this paper.
	return db.GetAnalysisBySourceID(ctx, paper.SourceID)
}

// GetAnalysisBySourceID returns the stored analysis for a source ID.
func (db *DB) GetAnalysisBySourceID(ctx context.Context, sourceID string) (*domain.AnalyzedPaper, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+analyzedPaperColumns+`
		FROM analyzed_papers
		WHERE source_id = $1
	`, sourceID)

	paper, err := scanAnalyzedPaper(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get analysis: %w", err)
	}

	return paper, nil
}

// RecentAnalyses returns the latest analyzed papers.
func (db *DB) RecentAnalyses(ctx context.Context, limit int) ([]domain.AnalyzedPaper, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+analyzedPaperColumns+`
		FROM analyzed_papers
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent analyses: %w", err)
	}
	defer rows.Close()

	return collectAnalyzedPapers(rows)
}

// PaperStats returns per-source counts of analyzed papers.
func (db *DB) PaperStats(ctx context.Context) (*domain.PaperStats, error) {
	var stats domain.PaperStats

	err := db.Pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE source = $1),
			count(*) FILTER (WHERE source = $2)
		FROM analyzed_papers
	`, domain.SourceArxiv, domain.SourceSemanticScholar).Scan(
		&stats.TotalPapers,
		&stats.ArxivPapers,
		&stats.SemanticScholarPapers,
	)
	if err != nil {
		return nil, fmt.Errorf("paper stats: %w", err)
	}

	return &stats, nil
}

// SetPaperEmbedding stores the embedding vector for an analyzed paper.
func (db *DB) SetPaperEmbedding(ctx context.Context, sourceID string, embedding []float32) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE analyzed_papers
		SET embedding = $2, updated_at = now()
		WHERE source_id = $1
	`, sourceID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("set paper embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SourceIDsMissingEmbedding lists analyzed papers without a stored embedding.
func (db *DB) SourceIDsMissingEmbedding(ctx context.Context, limit int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT source_id
		FROM analyzed_papers
		WHERE embedding IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("missing embeddings: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan source id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source ids: %w", err)
	}

	return ids, nil
}

// SimilarPapers returns stored analyses nearest to the given paper's
// embedding by cosine distance. The paper itself is excluded.
func (db *DB) SimilarPapers(ctx context.Context, sourceID string, limit int) ([]domain.AnalyzedPaper, error) {
	var embedding pgvector.Vector

	err := db.Pool.QueryRow(ctx, `
		SELECT embedding
		FROM analyzed_papers
		WHERE source_id = $1 AND embedding IS NOT NULL
	`, sourceID).Scan(&embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get paper embedding: %w", err)
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+analyzedPaperColumns+`
		FROM analyzed_papers
		WHERE source_id <> $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`, sourceID, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("similar papers: %w", err)
	}
	defer rows.Close()

	return collectAnalyzedPapers(rows)
}

// toStringArray keeps nil slices out of NOT NULL array columns.
func toStringArray(ss []string) []string {
	if ss == nil {
		return []string{}
	}

	return ss
}

func collectAnalyzedPapers(rows pgx.Rows) ([]domain.AnalyzedPaper, error) {
	var papers []domain.AnalyzedPaper

	for rows.Next() {
		paper, err := scanAnalyzedPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analyzed paper: %w", err)
		}

		papers = append(papers, *paper)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyzed papers: %w", err)
	}

	return papers, nil
}

func scanAnalyzedPaper(row pgx.Row) (*domain.AnalyzedPaper, error) {
	var (
		paper     domain.AnalyzedPaper
		id        pgtype.UUID
		abstract  pgtype.Text
		year      pgtype.Int4
		venue     pgtype.Text
		url       pgtype.Text
		summary   pgtype.Text
		method    pgtype.Text
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(
		&id,
		&paper.Paper.SourceID,
		&paper.Paper.Title,
		&abstract,
		&paper.Paper.Authors,
		&year,
		&venue,
		&url,
		&paper.Paper.Citations,
		&paper.Paper.Source,
		&summary,
		&paper.Analysis.KeyFindings,
		&method,
		&paper.Analysis.Applications,
		&paper.Analysis.FutureWork,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	paper.ID = fromUUID(id)
	paper.Paper.Abstract = fromText(abstract)
	paper.Paper.Year = fromInt4(year)
	paper.Paper.Venue = fromText(venue)
	paper.Paper.URL = fromText(url)
	paper.Analysis.Summary = fromText(summary)
	paper.Analysis.Methodology = fromText(method)
	paper.CreatedAt = createdAt
	paper.UpdatedAt = updatedAt

	return &paper, nil
}
