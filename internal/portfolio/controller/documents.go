package controller

import (
	"context"
	"fmt"
	"io"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/events"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/gartstein/vcpms/internal/portfolio/storage"
	"github.com/gartstein/vcpms/internal/pkg/utils"
	"go.uber.org/zap"
)

// Upload is a file received from a client.
type Upload struct {
	Name    string
	Size    int64
	Content io.Reader
}

// DocumentService attaches files and links to companies, individuals and
// programmes and keeps stored files in step with document rows.
type DocumentService struct {
	repo     Repository
	files    storage.FileStorage
	producer EventProducer
	logger   *zap.Logger
}

func NewDocumentService(repo Repository, files storage.FileStorage, producer EventProducer, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		repo:     repo,
		files:    files,
		producer: producer,
		logger:   logger.Named("document_service"),
	}
}

// UploadFile stores the upload under the owner's directory and records it.
// The stored file is removed again when the row cannot be written.
func (s *DocumentService) UploadFile(ctx context.Context, owner models.Owner, up Upload, isPrivate bool) (*models.Document, error) {
	doc, err := models.NewFileDocument(owner, up.Name, up.Size, isPrivate)
	if err != nil {
		return nil, err
	}
	ownerName, err := s.repo.OwnerName(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to find document owner: %w", err)
	}
	rel, err := s.files.Save(storage.DocumentDir(ownerName), doc.FileName, up.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	doc.FilePath = &rel

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		if rmErr := s.files.Delete(rel); rmErr != nil {
			s.logger.Warn("failed to clean up stored file", zap.String("path", rel), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	s.producer.Produce(events.DocumentCreated, doc.ID, doc)
	return doc, nil
}

func (s *DocumentService) AddURL(ctx context.Context, owner models.Owner, name, link string, isPrivate bool) (*models.Document, error) {
	doc, err := models.NewURLDocument(owner, name, link, isPrivate)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	s.producer.Produce(events.DocumentCreated, doc.ID, doc)
	return doc, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, id uint) (*models.Document, error) {
	return s.repo.GetDocument(ctx, id)
}

// OpenFile returns the document with a reader over its stored file. Link
// documents have no file and yield ErrNotFound.
func (s *DocumentService) OpenFile(ctx context.Context, id uint) (*models.Document, io.ReadCloser, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !doc.HasFile() {
		return nil, nil, fmt.Errorf("document %d has no file: %w", id, e.ErrNotFound)
	}
	rc, err := s.files.Open(*doc.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

// LinkTarget returns the URL of a link document.
func (s *DocumentService) LinkTarget(ctx context.Context, id uint) (string, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	if !doc.HasURL() {
		return "", fmt.Errorf("document %d has no url: %w", id, e.ErrNotFound)
	}
	return *doc.URL, nil
}

func (s *DocumentService) TogglePrivacy(ctx context.Context, id uint) (*models.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.IsPrivate = !doc.IsPrivate
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	s.producer.Produce(events.DocumentUpdated, doc.ID, doc)
	return doc, nil
}

// DeleteDocument removes the row, then the stored file. A failed file
// removal is logged and returned; the row stays deleted.
func (s *DocumentService) DeleteDocument(ctx context.Context, id uint) (*models.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}
	s.producer.Produce(events.DocumentDeleted, id, nil)
	return doc, removeStoredFiles(s.files, s.logger, []models.Document{*doc})
}

// ReplaceFile swaps the stored file of a document. The previous file is
// removed only when the new one landed at a different path.
func (s *DocumentService) ReplaceFile(ctx context.Context, id uint, up Upload) (*models.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	fresh, err := models.NewFileDocument(doc.Owner(), up.Name, up.Size, doc.IsPrivate)
	if err != nil {
		return nil, err
	}
	ownerName, err := s.repo.OwnerName(ctx, doc.Owner())
	if err != nil {
		return nil, fmt.Errorf("failed to find document owner: %w", err)
	}
	rel, err := s.files.Save(storage.DocumentDir(ownerName), fresh.FileName, up.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	previous := utils.Deref(doc.FilePath)
	doc.FileName, doc.FileType, doc.FileSize = fresh.FileName, fresh.FileType, fresh.FileSize
	doc.FilePath, doc.URL = &rel, nil
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		if rmErr := s.files.Delete(rel); rmErr != nil {
			s.logger.Warn("failed to clean up stored file", zap.String("path", rel), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	if previous != "" && previous != rel {
		if err := s.files.Delete(previous); err != nil {
			s.logger.Warn("failed to remove replaced file", zap.String("path", previous), zap.Error(err))
		}
	}
	s.producer.Produce(events.DocumentUpdated, doc.ID, doc)
	return doc, nil
}

// removeStoredFiles deletes the files behind already-deleted document rows.
func removeStoredFiles(files storage.FileStorage, logger *zap.Logger, docs []models.Document) error {
	var firstErr error
	for _, d := range docs {
		if !d.HasFile() {
			continue
		}
		if err := files.Delete(*d.FilePath); err != nil {
			logger.Error("failed to remove stored file",
				zap.Uint("document_id", d.ID),
				zap.String("path", *d.FilePath),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove stored file: %w", err)
			}
		}
	}
	return firstErr
}
