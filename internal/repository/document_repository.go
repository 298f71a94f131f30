package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schoolhub/api/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepository struct {
	pool *pgxpool.Pool
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, doc models.Document) error {
	const query = `
		INSERT INTO documents (id, student_id, uploader_id, file_name, content_type, size_bytes, object_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		doc.ID, doc.StudentID, doc.UploaderID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.ObjectKey,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (models.Document, error) {
	const query = `
		SELECT id, student_id, uploader_id, file_name, content_type, size_bytes, object_key, created_at
		FROM documents WHERE id = $1
	`
	var doc models.Document
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.StudentID, &doc.UploaderID, &doc.FileName, &doc.ContentType, &doc.SizeBytes, &doc.ObjectKey, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Document{}, ErrDocumentNotFound
		}
		return models.Document{}, err
	}
	return doc, nil
}

func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Document, error) {
	const query = `
		SELECT id, student_id, uploader_id, file_name, content_type, size_bytes, object_key, created_at
		FROM documents WHERE student_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID, &doc.StudentID, &doc.UploaderID, &doc.FileName, &doc.ContentType, &doc.SizeBytes, &doc.ObjectKey, &doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
