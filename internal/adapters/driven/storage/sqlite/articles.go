package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// articleStore implements driven.ArticleStore.
type articleStore struct {
	store *Store
}

var _ driven.ArticleStore = (*articleStore)(nil)

const articleColumns = `id, title, text, explanation, source_path, date, created_at, updated_at`

// SaveArticle inserts (ID == 0) or updates an article.
func (s *articleStore) SaveArticle(ctx context.Context, article *domain.Article) error {
	if article == nil {
		return domain.ErrInvalidInput
	}
	now := time.Now()
	article.UpdatedAt = now

	if article.ID == 0 {
		article.CreatedAt = now
		res, err := s.store.db.ExecContext(ctx, `
			INSERT INTO articles (title, text, explanation, source_path, date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, article.Title, article.Text, article.Explanation, article.SourcePath,
			article.Date, article.CreatedAt, article.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting article: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading article id: %w", err)
		}
		article.ID = id
		return nil
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO articles (id, title, text, explanation, source_path, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			text = excluded.text,
			explanation = excluded.explanation,
			source_path = excluded.source_path,
			date = excluded.date,
			updated_at = excluded.updated_at
	`, article.ID, article.Title, article.Text, article.Explanation, article.SourcePath,
		article.Date, now, article.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving article: %w", err)
	}

	err = s.store.db.QueryRowContext(ctx, "SELECT created_at FROM articles WHERE id = ?", article.ID).
		Scan(&article.CreatedAt)
	if err != nil {
		return fmt.Errorf("reading article created_at: %w", err)
	}
	return nil
}

// AddComment appends a comment to an article.
func (s *articleStore) AddComment(ctx context.Context, comment *domain.Comment) error {
	if comment == nil {
		return domain.ErrInvalidInput
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	var exists int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE id = ?", comment.ArticleID).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking article: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO comments (article_id, text, created_at) VALUES (?, ?, ?)
	`, comment.ArticleID, comment.Text, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading comment id: %w", err)
	}
	comment.ID = id
	return nil
}

// GetArticle retrieves an article with its comments, oldest first.
func (s *articleStore) GetArticle(ctx context.Context, id int64) (*domain.Article, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	article, err := scanArticle(row)
	if err != nil {
		return nil, err
	}

	article.Comments, err = s.comments(ctx, id)
	if err != nil {
		return nil, err
	}
	return article, nil
}

// ListArticles returns all articles ordered by id. Comments are not loaded.
func (s *articleStore) ListArticles(ctx context.Context) ([]domain.Article, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article //nolint:prealloc // size unknown from query
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}
	return articles, nil
}

// DeleteArticle removes an article and its comments.
func (s *articleStore) DeleteArticle(ctx context.Context, id int64) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE article_id = ?", id); err != nil {
		return fmt.Errorf("deleting comments: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FindBySourcePath returns the article imported from path.
func (s *articleStore) FindBySourcePath(ctx context.Context, path string) (*domain.Article, error) {
	if path == "" {
		return nil, domain.ErrNotFound
	}
	var id int64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT id FROM articles WHERE source_path = ? ORDER BY id LIMIT 1", path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding article by path: %w", err)
	}
	return s.GetArticle(ctx, id)
}

func (s *articleStore) comments(ctx context.Context, articleID int64) ([]domain.Comment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, article_id, text, created_at
		FROM comments WHERE article_id = ?
		ORDER BY created_at, id
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var a domain.Article
	var date sql.NullTime

	err := row.Scan(&a.ID, &a.Title, &a.Text, &a.Explanation, &a.SourcePath, &date, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning article: %w", err)
	}
	if date.Valid {
		a.Date = date.Time
	}
	return &a, nil
}
