package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"blogflow/internal/domain"
	"blogflow/pkg/logger"
)

const articleColumns = `id, author_id, author_name, title, content, summary, tags, category, view_count, created_at, updated_at`

type ArticleRepository struct {
	db     DBTX
	logger logger.Logger
}

func NewArticleRepository(db DBTX, logger logger.Logger) domain.ArticleRepository {
	return &ArticleRepository{
		db:     db,
		logger: logger,
	}
}

func scanArticle(row interface{ Scan(...any) error }) (*domain.Article, error) {
	var a domain.Article
	err := row.Scan(
		&a.ID,
		&a.AuthorID,
		&a.AuthorName,
		&a.Title,
		&a.Content,
		&a.Summary,
		&a.Tags,
		&a.Category,
		&a.ViewCount,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArticleRepository) FindByID(ctx context.Context, id int64) (*domain.Article, error) {
	defer observe("find_by_id", "article", time.Now())

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.ErrorContext(ctx, "Article lookup failed", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("article lookup failed: %w", err)
	}

	return article, nil
}

func (r *ArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	defer observe("create", "article", time.Now())

	query := `
		INSERT INTO articles (author_id, author_name, title, content, summary, tags, category, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	now := time.Now().UTC()
	article.CreatedAt = now
	article.UpdatedAt = now

	err := r.db.QueryRowContext(ctx,
		query,
		article.AuthorID,
		article.AuthorName,
		article.Title,
		article.Content,
		article.Summary,
		article.Tags,
		article.Category,
		article.ViewCount,
		article.CreatedAt,
		article.UpdatedAt,
	).Scan(&article.ID)

	if err != nil {
		r.logger.ErrorContext(ctx, "Article could not be created", map[string]interface{}{"author_id": article.AuthorID, "error": err.Error()})
		return fmt.Errorf("article could not be created: %w", err)
	}

	return nil
}

// Update never touches author_id or view_count.
func (r *ArticleRepository) Update(ctx context.Context, article *domain.Article) error {
	defer observe("update", "article", time.Now())

	query := `
		UPDATE articles
		SET title = $1, content = $2, summary = $3, tags = $4, category = $5, updated_at = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(ctx,
		query,
		article.Title,
		article.Content,
		article.Summary,
		article.Tags,
		article.Category,
		article.UpdatedAt.UTC(),
		article.ID,
	)

	if err != nil {
		r.logger.ErrorContext(ctx, "Article could not be updated", map[string]interface{}{"id": article.ID, "error": err.Error()})
		return fmt.Errorf("article could not be updated: %w", err)
	}

	return nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	defer observe("delete", "article", time.Now())

	_, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Article could not be deleted", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("article could not be deleted: %w", err)
	}

	return nil
}

func (r *ArticleRepository) List(ctx context.Context, offset, limit int) ([]*domain.Article, error) {
	defer observe("list", "article", time.Now())

	query := `
		SELECT ` + articleColumns + `
		FROM articles
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Articles could not be listed", map[string]interface{}{"offset": offset, "limit": limit, "error": err.Error()})
		return nil, fmt.Errorf("articles could not be listed: %w", err)
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("article row could not be read: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("article rows could not be read: %w", err)
	}

	return articles, nil
}

func (r *ArticleRepository) Count(ctx context.Context) (int64, error) {
	defer observe("count", "article", time.Now())

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Articles could not be counted", map[string]interface{}{"error": err.Error()})
		return 0, fmt.Errorf("articles could not be counted: %w", err)
	}

	return total, nil
}

func (r *ArticleRepository) IncrementViewCount(ctx context.Context, id int64) error {
	defer observe("increment_view_count", "article", time.Now())

	_, err := r.db.ExecContext(ctx, `UPDATE articles SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "View count could not be incremented", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("view count could not be incremented: %w", err)
	}

	return nil
}
