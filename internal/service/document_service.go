package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/rs/zerolog"

	"schoolhub/api/internal/apperrors"
	"schoolhub/api/internal/ids"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/repository"
)

const maxDocumentBytes = 20 << 20 // 20 MiB

type DocumentStore interface {
	Create(ctx context.Context, doc models.Document) error
	GetByID(ctx context.Context, id string) (models.Document, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Document, error)
}

// ObjectStorage is the blob backend for document bytes.
type ObjectStorage interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, fileName string) (string, error)
}

type DocumentService struct {
	documents DocumentStore
	objects   ObjectStorage
	users     UserStore
	log       zerolog.Logger
}

func NewDocumentService(documents DocumentStore, objects ObjectStorage, users UserStore, log zerolog.Logger) *DocumentService {
	return &DocumentService{
		documents: documents,
		objects:   objects,
		users:     users,
		log:       log,
	}
}

type UploadDocumentInput struct {
	Uploader    models.PublicUser
	StudentID   string
	FileName    string
	ContentType string
	SizeBytes   int64
	Reader      io.Reader
}

func (s *DocumentService) Upload(ctx context.Context, input UploadDocumentInput) (models.Document, error) {
	if input.FileName == "" || input.Reader == nil {
		return models.Document{}, apperrors.Validation("file is required")
	}
	if input.SizeBytes <= 0 || input.SizeBytes > maxDocumentBytes {
		return models.Document{}, apperrors.Validation("file size out of range")
	}

	student, err := s.users.GetByID(ctx, input.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Document{}, apperrors.NotFound("student not found")
		}
		return models.Document{}, apperrors.Internal(err)
	}
	if student.Role != models.UserRoleStudent {
		return models.Document{}, apperrors.Validation("user is not a student")
	}

	doc := models.Document{
		ID:          ids.New(),
		StudentID:   student.ID,
		UploaderID:  input.Uploader.ID,
		FileName:    path.Base(input.FileName),
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
	}
	doc.ObjectKey = fmt.Sprintf("students/%s/%s/%s", doc.StudentID, doc.ID, doc.FileName)

	if err := s.objects.Put(ctx, doc.ObjectKey, input.Reader, doc.SizeBytes, doc.ContentType); err != nil {
		return models.Document{}, apperrors.Internal(err)
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return models.Document{}, apperrors.Internal(err)
	}

	s.log.Info().Str("document_id", doc.ID).Str("student_id", doc.StudentID).Msg("document uploaded")
	return doc, nil
}

// DownloadURL returns a presigned link for a document the requester may see:
// staff, the student it belongs to, or that student's parent.
func (s *DocumentService) DownloadURL(ctx context.Context, requester models.PublicUser, documentID string) (string, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return "", apperrors.NotFound("document not found")
		}
		return "", apperrors.Internal(err)
	}

	if err := canAccessStudent(ctx, s.users, requester, doc.StudentID); err != nil {
		return "", err
	}

	url, err := s.objects.PresignGet(ctx, doc.ObjectKey, doc.FileName)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return url, nil
}

func (s *DocumentService) ListByStudent(ctx context.Context, requester models.PublicUser, studentID string) ([]models.Document, error) {
	if err := canAccessStudent(ctx, s.users, requester, studentID); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return docs, nil
}
