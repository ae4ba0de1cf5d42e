package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pomboexe/support-desk/internal/domain"
)

// KnowledgeRepository persists knowledge-base articles.
type KnowledgeRepository interface {
	Create(ctx context.Context, doc *domain.KnowledgeDoc) error
	List(ctx context.Context) ([]domain.KnowledgeDoc, error)
	Delete(ctx context.Context, id string) error
}

type knowledgeRepository struct {
	pool *pgxpool.Pool
}

// NewKnowledgeRepository returns a Postgres-backed implementation.
func NewKnowledgeRepository(pool *pgxpool.Pool) KnowledgeRepository {
	return &knowledgeRepository{pool: pool}
}

func (r *knowledgeRepository) Create(ctx context.Context, doc *domain.KnowledgeDoc) error {
	const query = `
        INSERT INTO knowledge_base (title, content, category)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	category := doc.Category
	if category == "" {
		category = "general"
	}
	doc.Category = category
	return r.pool.QueryRow(ctx, query, doc.Title, doc.Content, category).Scan(&doc.ID, &doc.CreatedAt)
}

func (r *knowledgeRepository) List(ctx context.Context) ([]domain.KnowledgeDoc, error) {
	const query = `
        SELECT id, title, content, category, created_at
        FROM knowledge_base ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.KnowledgeDoc
	for rows.Next() {
		var doc domain.KnowledgeDoc
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Category, &doc.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (r *knowledgeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM knowledge_base WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
