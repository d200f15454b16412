package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"riverai-be/internal/apperror"
	"riverai-be/internal/dto"
	"riverai-be/internal/entity"
	"riverai-be/internal/pkg/logger"
	"riverai-be/internal/repository/specification"
	"riverai-be/internal/repository/unitofwork"
	"riverai-be/pkg/knowledge"
	"riverai-be/pkg/pdf"

	"github.com/google/uuid"
)

type IIngestionService interface {
	// Scan walks the uploads directory and ingests every PDF that has
	// not reached the ingested state yet. Per-file failures are logged
	// and skipped; the scan itself only fails on directory errors.
	Scan(ctx context.Context) (*dto.IngestSummary, error)

	// IsIngested reports whether the filename has reached the ingested
	// state in the ledger.
	IsIngested(ctx context.Context, filename string) (bool, error)
}

// IngestedMessage is the bus payload published after each ingestion
// attempt. Error is empty on success.
type IngestedMessage struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
	Error    string `json:"error,omitempty"`
}

type ingestionService struct {
	uowFactory       unitofwork.RepositoryFactory
	store            *knowledge.Store
	publisherService IPublisherService
	uploadsDir       string
	log              logger.ILogger
	extract          func(path string) ([]pdf.PageText, error)
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	store *knowledge.Store,
	publisherService IPublisherService,
	uploadsDir string,
	log logger.ILogger,
) IIngestionService {
	return &ingestionService{
		uowFactory:       uowFactory,
		store:            store,
		publisherService: publisherService,
		uploadsDir:       uploadsDir,
		log:              log,
		extract:          pdf.ExtractPages,
	}
}

func (s *ingestionService) Scan(ctx context.Context) (*dto.IngestSummary, error) {
	entries, err := os.ReadDir(s.uploadsDir)
	if err != nil {
		return nil, err
	}

	summary := &dto.IngestSummary{Files: []string{}}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}

		chunks, newlyIngested, err := s.ingestFile(ctx, name)
		if err != nil {
			// One bad PDF must not block the rest of the batch.
			s.log.Error("ingestion", "File ingestion failed", map[string]interface{}{
				"filename": name,
				"error":    err.Error(),
			})
			s.publish(ctx, IngestedMessage{Filename: name, Error: err.Error()})
			continue
		}
		if newlyIngested {
			summary.Files = append(summary.Files, name)
			summary.Chunks += chunks
		}
	}

	return summary, nil
}

func (s *ingestionService) IsIngested(ctx context.Context, filename string) (bool, error) {
	record, err := s.uowFactory.NewUnitOfWork(ctx).DocumentRecordRepository().FindOne(ctx,
		specification.ByFilename{Filename: filename})
	if err != nil {
		return false, err
	}
	return record != nil && record.Ingested, nil
}

// ingestFile drives one filename through the ledger states. Returns
// newlyIngested=false for files already done (idempotent skip).
func (s *ingestionService) ingestFile(ctx context.Context, filename string) (int, bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	recordRepo := uow.DocumentRecordRepository()

	record, err := recordRepo.FindOne(ctx, specification.ByFilename{Filename: filename})
	if err != nil {
		return 0, false, err
	}

	if record == nil {
		// Register immediately so a crash mid-batch keeps the
		// registration even when ingestion is never attempted.
		record = &entity.DocumentRecord{
			Id:        uuid.New(),
			Filename:  filename,
			FilePath:  filepath.Join(s.uploadsDir, filename),
			Ingested:  false,
			CreatedAt: time.Now(),
		}
		if err := recordRepo.Create(ctx, record); err != nil {
			// A concurrent scan may have registered it first. The
			// unique filename index makes the insert fail; re-read.
			record, err = recordRepo.FindOne(ctx, specification.ByFilename{Filename: filename})
			if err != nil {
				return 0, false, err
			}
			if record == nil {
				return 0, false, apperror.Ingestion(filename, err)
			}
		}
	}

	// Ingested is sticky. Re-scans over done files are no-ops.
	if record.Ingested {
		return 0, false, nil
	}

	pages, err := s.extract(record.FilePath)
	if err != nil {
		return 0, false, apperror.Ingestion(filename, err)
	}

	// Slow step runs without any transaction held. The store's upsert
	// replaces the document's chunks atomically, so a concurrent
	// re-attempt converges instead of duplicating vectors.
	chunks, err := s.store.UpsertDocument(ctx, filename, pages)
	if err != nil {
		return 0, false, apperror.Ingestion(filename, err)
	}

	now := time.Now()
	record.Ingested = true
	record.IngestedAt = &now
	if err := recordRepo.Update(ctx, record); err != nil {
		return 0, false, err
	}

	s.publish(ctx, IngestedMessage{Filename: filename, Pages: len(pages), Chunks: chunks})

	return chunks, true, nil
}

func (s *ingestionService) publish(ctx context.Context, msg IngestedMessage) {
	if s.publisherService == nil {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	// Notification fan-out is auxiliary; a publish failure must not
	// fail the ingestion.
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.log.Warn("ingestion", "Failed to publish ingestion message", map[string]interface{}{
			"filename": msg.Filename,
			"error":    err.Error(),
		})
	}
}
