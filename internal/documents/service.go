package documents

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/studyforge/backend/internal/generator"
	"github.com/studyforge/backend/internal/knowledge"
	"github.com/studyforge/backend/internal/models"
	"github.com/studyforge/backend/internal/quiz"
	"github.com/studyforge/backend/internal/usage"
)

const maxUploadBytes = 32 << 20

// Processing stages surfaced through the status poll.
const (
	StageGeneratingTree = "generating_tree"
	StageGeneratingQuiz = "generating_quiz"
)

// Service owns the document lifecycle: upload through the usage gate, then
// background processing into a knowledge tree and assessment quiz.
type Service struct {
	store     *Store
	storage   ObjectStorage
	usage     *usage.Service
	knowledge *knowledge.Service
	quiz      *quiz.Service
	gen       *generator.Generator
}

func NewService(store *Store, storage ObjectStorage, usageSvc *usage.Service, knowledgeSvc *knowledge.Service, quizSvc *quiz.Service, gen *generator.Generator) *Service {
	return &Service{
		store:     store,
		storage:   storage,
		usage:     usageSvc,
		knowledge: knowledgeSvc,
		quiz:      quizSvc,
		gen:       gen,
	}
}

// PDF satisfies the quiz package's PDFReader.
func (s *Service) PDF(doc *models.Document) ([]byte, error) {
	return s.storage.Read(doc.FilePath)
}

// ── Subjects ────────────────────────────────────────────

func (s *Service) CreateSubject(userID int64, name string) (*models.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("subject name is required: %w", models.ErrInvalidInput)
	}
	return s.store.CreateSubject(userID, name)
}

func (s *Service) ListSubjects(userID int64) ([]models.Subject, error) {
	subjects, err := s.store.ListSubjects(userID)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// DeleteSubject removes the subject, its stored PDFs, and (via cascades)
// all derived rows.
func (s *Service) DeleteSubject(userID, subjectID int64) error {
	if _, err := s.store.GetSubject(subjectID, userID); err != nil {
		return err
	}

	docs, err := s.store.ListDocuments(subjectID)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.storage.Delete(d.FilePath); err != nil {
			log.Printf("[documents] WARN: failed to delete file for document %d: %v", d.ID, err)
		}
	}

	return s.store.DeleteSubject(subjectID)
}

// ── Upload ──────────────────────────────────────────────

// Upload validates a PDF, charges its pages against the user's quota, and
// stores it as a pending document for the worker. The quota check comes
// before the file write so a denied upload leaves nothing behind.
func (s *Service) Upload(ctx context.Context, userID, subjectID int64, title string, data []byte) (*models.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("document title is required: %w", models.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload: %w", models.ErrInvalidInput)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("upload exceeds %d bytes: %w", maxUploadBytes, models.ErrInvalidInput)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("file is not a PDF: %w", models.ErrInvalidInput)
	}

	pages := CountPDFPages(data)
	if pages <= 0 {
		return nil, fmt.Errorf("could not determine page count: %w", models.ErrInvalidInput)
	}

	if _, err := s.store.GetSubject(subjectID, userID); err != nil {
		return nil, err
	}

	if _, err := s.usage.CheckAndIncrement(userID, pages, time.Now()); err != nil {
		return nil, err
	}

	path, err := s.storage.Save(data)
	if err != nil {
		return nil, fmt.Errorf("store pdf: %w", err)
	}

	doc, err := s.store.InsertDocument(subjectID, userID, title, path, pages)
	if err != nil {
		if derr := s.storage.Delete(path); derr != nil {
			log.Printf("[documents] WARN: orphaned upload at %s: %v", path, derr)
		}
		return nil, err
	}

	log.Printf("[documents] user %d uploaded %q (%d pages) as document %d", userID, title, pages, doc.ID)
	return doc, nil
}

// CountPDFPages estimates the page count from the raw PDF object tree. Page
// objects carry "/Type /Page"; the count excludes the "/Type /Pages" catalog
// nodes that prefix-match it.
func CountPDFPages(data []byte) int {
	pages := bytes.Count(data, []byte("/Type /Page")) - bytes.Count(data, []byte("/Type /Pages"))
	if pages <= 0 {
		// Some writers drop the space after the name operator.
		pages = bytes.Count(data, []byte("/Type/Page")) - bytes.Count(data, []byte("/Type/Pages"))
	}
	return pages
}

// ── Reads / Delete ──────────────────────────────────────

func (s *Service) ListDocuments(userID, subjectID int64) (*models.DocumentListResponse, error) {
	if _, err := s.store.GetSubject(subjectID, userID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(subjectID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return &models.DocumentListResponse{Documents: docs, Total: len(docs)}, nil
}

func (s *Service) GetDocument(userID, documentID int64) (*models.Document, error) {
	return s.store.GetDocument(documentID, userID)
}

func (s *Service) DeleteDocument(userID, documentID int64) error {
	doc, err := s.store.GetDocument(documentID, userID)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(doc.FilePath); err != nil {
		log.Printf("[documents] WARN: failed to delete file for document %d: %v", doc.ID, err)
	}
	return s.store.DeleteDocument(documentID)
}

// Status merges the durable document state with the transient processing
// stage from the cache.
func (s *Service) Status(userID, documentID int64) (*models.DocumentStatusResponse, error) {
	doc, err := s.store.GetDocument(documentID, userID)
	if err != nil {
		return nil, err
	}

	resp := &models.DocumentStatusResponse{
		DocumentID: doc.ID,
		Status:     doc.Status,
		Error:      doc.ErrorMessage,
	}
	if doc.Status == models.DocumentProcessing {
		if stage, ok := s.knowledge.Cache().Get(userID, documentID); ok {
			resp.Stage = stage
		}
	}
	return resp, nil
}

// ── Background Processing ───────────────────────────────

// StartWorker polls for pending documents until ctx is canceled. One
// document is processed at a time per instance; SKIP LOCKED in the claim
// query spreads work across instances.
func (s *Service) StartWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[documents] processing worker started (every %v)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[documents] processing worker stopped")
			return
		case <-ticker.C:
			docs, err := s.store.ClaimPending(ctx, 1)
			if err != nil {
				log.Printf("[documents] WARN: claim failed: %v", err)
				continue
			}
			for i := range docs {
				s.Process(ctx, &docs[i])
			}
		}
	}
}

// Process runs the full pipeline for one claimed document: knowledge tree,
// then assessment quiz. Failures land in the documents row for the status
// poll to report.
func (s *Service) Process(ctx context.Context, doc *models.Document) {
	cache := s.knowledge.Cache()
	started := time.Now()
	log.Printf("[documents] processing document %d (%q)", doc.ID, doc.Title)

	fail := func(stage string, err error) {
		log.Printf("[documents] WARN: document %d failed at %s: %v", doc.ID, stage, err)
		msg := fmt.Sprintf("%s: %v", stage, err)
		if merr := s.store.MarkFailed(doc.ID, msg); merr != nil {
			log.Printf("[documents] WARN: could not mark document %d failed: %v", doc.ID, merr)
		}
		cache.Delete(doc.UserID, doc.ID)
	}

	pdf, err := s.storage.Read(doc.FilePath)
	if err != nil {
		fail("load pdf", err)
		return
	}

	cache.Set(doc.UserID, doc.ID, StageGeneratingTree)
	raw, _, err := s.gen.GenerateKnowledgeTree(ctx, pdf, doc.Title)
	if err != nil {
		fail("generate tree", err)
		return
	}
	if _, err := s.knowledge.IngestTree(ctx, doc.ID, raw); err != nil {
		fail("ingest tree", err)
		return
	}

	cache.Set(doc.UserID, doc.ID, StageGeneratingQuiz)
	if _, err := s.quiz.GenerateAssessment(ctx, doc); err != nil {
		fail("generate assessment", err)
		return
	}

	if err := s.store.MarkCompleted(doc.ID); err != nil {
		fail("finalize", err)
		return
	}
	cache.Delete(doc.UserID, doc.ID)
	log.Printf("[documents] document %d completed in %v", doc.ID, time.Since(started).Round(time.Millisecond))
}
