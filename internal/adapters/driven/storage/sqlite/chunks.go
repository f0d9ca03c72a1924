package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

const chunkColumns = `id, article_id, chunk_index, content, embedding, model_id, created_at`

// ReplaceArticleChunks swaps the chunks and status of an article atomically.
func (s *chunkStore) ReplaceArticleChunks(
	ctx context.Context, articleID int64, chunks []domain.Chunk, status domain.ArticleIndexStatus,
) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteArticleRows(ctx, tx, articleID); err != nil {
		return err
	}

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (`+chunkColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, c := range chunks {
			if _, err := stmt.ExecContext(ctx, c.ID, articleID, c.Index, c.Content,
				float32SliceToBytes(c.Embedding), c.ModelID, c.CreatedAt); err != nil {
				return fmt.Errorf("saving chunk %d: %w", c.Index, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_status (article_id, chunk_count, indexed_at) VALUES (?, ?, ?)
	`, articleID, status.ChunkCount, status.IndexedAt)
	if err != nil {
		return fmt.Errorf("saving index status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteArticle removes all chunks and the status row of an article.
func (s *chunkStore) DeleteArticle(ctx context.Context, articleID int64) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteArticleRows(ctx, tx, articleID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Clear removes every chunk and status row. The metadata record is kept.
func (s *chunkStore) Clear(ctx context.Context) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM index_status"); err != nil {
		return fmt.Errorf("clearing index status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ScanChunks streams the chunks of modelID ordered by article and index.
func (s *chunkStore) ScanChunks(ctx context.Context, modelID string, fn func(domain.Chunk) error) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks WHERE model_id = ?
		ORDER BY article_id, chunk_index
	`, modelID)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return err
		}
		if err := fn(*chunk); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating chunks: %w", err)
	}
	return nil
}

// GetChunks returns the chunks of one article ordered by index.
func (s *chunkStore) GetChunks(ctx context.Context, articleID int64) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks WHERE article_id = ?
		ORDER BY chunk_index
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// CountChunks returns the number of stored chunks.
func (s *chunkStore) CountChunks(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM chunks")
}

// CountIndexedArticles returns the number of status rows.
func (s *chunkStore) CountIndexedArticles(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(*) FROM index_status")
}

// GetArticleStatus returns the status row of an article.
func (s *chunkStore) GetArticleStatus(ctx context.Context, articleID int64) (*domain.ArticleIndexStatus, error) {
	var st domain.ArticleIndexStatus
	err := s.store.db.QueryRowContext(ctx, `
		SELECT article_id, chunk_count, indexed_at FROM index_status WHERE article_id = ?
	`, articleID).Scan(&st.ArticleID, &st.ChunkCount, &st.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting index status: %w", err)
	}
	return &st, nil
}

// GetMetadata returns the index metadata record.
func (s *chunkStore) GetMetadata(ctx context.Context) (*domain.IndexMetadata, error) {
	var meta domain.IndexMetadata
	err := s.store.db.QueryRowContext(ctx, `
		SELECT model_id, chunking_version, dimensions, built_at FROM index_metadata WHERE id = 1
	`).Scan(&meta.ModelID, &meta.ChunkingVersion, &meta.Dimensions, &meta.BuiltAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting index metadata: %w", err)
	}
	return &meta, nil
}

// SaveMetadata overwrites the index metadata record.
func (s *chunkStore) SaveMetadata(ctx context.Context, meta domain.IndexMetadata) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO index_metadata (id, model_id, chunking_version, dimensions, built_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			model_id = excluded.model_id,
			chunking_version = excluded.chunking_version,
			dimensions = excluded.dimensions,
			built_at = excluded.built_at
	`, meta.ModelID, meta.ChunkingVersion, meta.Dimensions, meta.BuiltAt)
	if err != nil {
		return fmt.Errorf("saving index metadata: %w", err)
	}
	return nil
}

func (s *chunkStore) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}

func deleteArticleRows(ctx context.Context, tx *sql.Tx, articleID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE article_id = ?", articleID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM index_status WHERE article_id = ?", articleID); err != nil {
		return fmt.Errorf("deleting index status: %w", err)
	}
	return nil
}

func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var c domain.Chunk
	var embedding []byte

	if err := rows.Scan(&c.ID, &c.ArticleID, &c.Index, &c.Content, &embedding, &c.ModelID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	c.Embedding = bytesToFloat32Slice(embedding)
	return &c, nil
}
