package knowledge

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/studyforge/backend/internal/models"
)

// Service ties tree ingestion, progress math, and recommendations to the
// store. All read paths enforce ownership; ingestion is only reached from
// the processing worker, which already owns the document.
type Service struct {
	store *Store
	cache *StageCache
}

func NewService(store *Store, cache *StageCache) *Service {
	return &Service{store: store, cache: cache}
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) Cache() *StageCache { return s.cache }

// IngestTree validates an AI-supplied node batch and atomically replaces the
// document's tree with it. Either the whole batch lands or nothing changes.
func (s *Service) IngestTree(ctx context.Context, documentID int64, raw []models.RawNode) (int, error) {
	ordered, err := OrderForest(raw)
	if err != nil {
		return 0, err
	}

	count, err := s.store.ReplaceTree(ctx, documentID, ordered)
	if err != nil {
		return 0, fmt.Errorf("replace tree for document %d: %w", documentID, err)
	}

	log.Printf("[knowledge] ingested tree for document %d (%d nodes)", documentID, count)
	return count, nil
}

// Tree returns the document's node forest annotated with the user's mastery.
func (s *Service) Tree(userID, documentID int64) (*models.TreeResponse, error) {
	if _, err := s.store.DocumentForUser(documentID, userID); err != nil {
		return nil, err
	}

	nodes, err := s.store.NodesByDocument(documentID, userID)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []models.KnowledgeNode{}
	}

	return &models.TreeResponse{DocumentID: documentID, Nodes: nodes}, nil
}

// DocumentProgress computes the user's completion percentage for one
// document.
func (s *Service) DocumentProgress(userID, documentID int64) (*models.DocumentProgressResponse, error) {
	if _, err := s.store.DocumentForUser(documentID, userID); err != nil {
		return nil, err
	}
	return s.documentProgress(userID, documentID)
}

func (s *Service) documentProgress(userID, documentID int64) (*models.DocumentProgressResponse, error) {
	total, known, err := s.store.NodeCounts(documentID, userID)
	if err != nil {
		return nil, err
	}
	return &models.DocumentProgressResponse{
		DocumentID: documentID,
		TotalNodes: total,
		KnownNodes: known,
		Progress:   DocumentPercent(known, total),
	}, nil
}

// SubjectProgress aggregates the user's progress across the subject's
// completed documents.
func (s *Service) SubjectProgress(userID, subjectID int64) (*models.SubjectProgressResponse, error) {
	if _, err := s.store.SubjectForUser(subjectID, userID); err != nil {
		return nil, err
	}

	docIDs, err := s.store.CompletedDocumentIDs(subjectID)
	if err != nil {
		return nil, err
	}

	docs := make([]models.DocumentProgressResponse, 0, len(docIDs))
	percents := make([]int, 0, len(docIDs))
	for _, id := range docIDs {
		dp, err := s.documentProgress(userID, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *dp)
		percents = append(percents, dp.Progress)
	}

	return &models.SubjectProgressResponse{
		SubjectID: subjectID,
		Progress:  SubjectPercent(percents),
		Documents: docs,
	}, nil
}

// Recommendation surveys all of the user's subjects and picks the next one
// to study.
func (s *Service) Recommendation(userID int64) (*models.RecommendationResponse, error) {
	subjects, err := s.store.SubjectsForUser(userID)
	if err != nil {
		return nil, err
	}

	progress := make([]models.SubjectProgress, 0, len(subjects))
	for _, sub := range subjects {
		sp, err := s.SubjectProgress(userID, sub.ID)
		if err != nil {
			return nil, err
		}

		var lastStudied time.Time
		if sub.LastStudiedAt != nil {
			lastStudied = *sub.LastStudiedAt
		}

		progress = append(progress, models.SubjectProgress{
			SubjectID:     sub.ID,
			Name:          sub.Name,
			Progress:      sp.Progress,
			LastStudiedAt: lastStudied,
		})
	}

	return &models.RecommendationResponse{
		Recommended: SelectRecommendation(progress),
		Subjects:    progress,
	}, nil
}
