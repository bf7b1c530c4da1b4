package quiz

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/studyforge/backend/internal/generator"
	"github.com/studyforge/backend/internal/knowledge"
	"github.com/studyforge/backend/internal/models"
)

const (
	defaultPracticePerNode = 3
	maxPracticePerNode     = 5
)

// PDFReader hands back the stored PDF bytes for a document. Satisfied by the
// documents service; an interface keeps this package out of the documents
// package's import graph.
type PDFReader interface {
	PDF(doc *models.Document) ([]byte, error)
}

type Service struct {
	store *Store
	nodes *knowledge.Store
	gen   *generator.Generator
	pdfs  PDFReader
}

func NewService(store *Store, nodes *knowledge.Store, gen *generator.Generator, pdfs PDFReader) *Service {
	return &Service{store: store, nodes: nodes, gen: gen, pdfs: pdfs}
}

// ── Generation ──────────────────────────────────────────

// GenerateAssessment writes the document's diagnostic set: one item per node
// that does not have one yet. Called from the processing worker right after
// tree ingestion, and again if a later regeneration added nodes.
func (s *Service) GenerateAssessment(ctx context.Context, doc *models.Document) (*models.GenerateQuizResponse, error) {
	nodes, err := s.nodes.NodesMissingAssessment(doc.ID)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		log.Printf("[quiz] document %d: all nodes already assessed", doc.ID)
		return &models.GenerateQuizResponse{}, nil
	}

	return s.generate(ctx, doc, nodes, models.QuizAssessment, 1)
}

// GeneratePractice writes a practice set targeting the requested nodes, or
// every node the user has not mastered when no targets are given.
func (s *Service) GeneratePractice(ctx context.Context, userID int64, documentID int64, req models.GenerateQuizRequest) (*models.GenerateQuizResponse, error) {
	doc, err := s.nodes.DocumentForUser(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentCompleted {
		return nil, fmt.Errorf("document %d is %s, not completed: %w", documentID, doc.Status, models.ErrInvalidInput)
	}

	var nodes []models.KnowledgeNode
	if len(req.TargetNodeIDs) > 0 {
		nodes, err = s.nodes.NodesByIDs(documentID, req.TargetNodeIDs, userID)
		if err != nil {
			return nil, err
		}
		if len(nodes) != len(req.TargetNodeIDs) {
			return nil, fmt.Errorf("target nodes must belong to document %d: %w", documentID, models.ErrInvalidInput)
		}
	} else {
		all, err := s.nodes.NodesByDocument(documentID, userID)
		if err != nil {
			return nil, err
		}
		for _, n := range all {
			if n.Status != models.StatusKnown {
				nodes = append(nodes, n)
			}
		}
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("no nodes left to practice: %w", models.ErrInvalidInput)
	}

	perNode := req.Count
	if perNode <= 0 {
		perNode = defaultPracticePerNode
	}
	if perNode > maxPracticePerNode {
		perNode = maxPracticePerNode
	}

	return s.generate(ctx, doc, nodes, models.QuizPractice, perNode)
}

func (s *Service) generate(ctx context.Context, doc *models.Document, nodes []models.KnowledgeNode, kind models.QuizSetKind, perNode int) (*models.GenerateQuizResponse, error) {
	pdf, err := s.pdfs.PDF(doc)
	if err != nil {
		return nil, fmt.Errorf("load pdf for document %d: %w", doc.ID, err)
	}

	raw, _, err := s.gen.GenerateQuizItems(ctx, pdf, nodes, kind, perNode)
	if err != nil {
		return nil, err
	}

	allowed := make(map[int64]bool, len(nodes))
	for _, n := range nodes {
		allowed[n.ID] = true
	}
	kept, dropped := FilterItems(raw, allowed, kind == models.QuizAssessment)
	if len(kept) == 0 {
		return nil, fmt.Errorf("no usable items in generated batch: %w", models.ErrUpstreamFailure)
	}

	set, err := s.store.SaveSet(ctx, doc.ID, kind, kept)
	if err != nil {
		return nil, err
	}

	log.Printf("[quiz] document %d: saved %s set %d (%d items, %d dropped)",
		doc.ID, kind, set.ID, len(kept), dropped)

	return &models.GenerateQuizResponse{
		QuizSetID:    set.ID,
		ItemsSaved:   len(kept),
		ItemsDropped: dropped,
	}, nil
}

// FilterItems drops generated items that cannot be trusted or stored: items
// whose source_quote is empty (nothing in the document backs them), items
// aimed at nodes outside the allowed set, and, for assessments, every item
// past the first for a node.
func FilterItems(items []models.RawQuizItem, allowed map[int64]bool, onePerNode bool) (kept []models.RawQuizItem, dropped int) {
	seen := make(map[int64]bool)
	for _, item := range items {
		if strings.TrimSpace(item.SourceQuote) == "" {
			log.Printf("[quiz] WARN: %v for node %d (empty source quote), dropping", models.ErrUnverifiedItem, item.NodeID)
			dropped++
			continue
		}
		if !allowed[item.NodeID] {
			log.Printf("[quiz] WARN: dropping item for unexpected node %d", item.NodeID)
			dropped++
			continue
		}
		if onePerNode {
			if seen[item.NodeID] {
				dropped++
				continue
			}
			seen[item.NodeID] = true
		}
		kept = append(kept, item)
	}
	return kept, dropped
}

// ── Serving and Answers ─────────────────────────────────

// Set returns a quiz set with answers stripped from its items.
func (s *Service) Set(userID, setID int64) (*models.QuizSetResponse, error) {
	set, err := s.store.SetForUser(setID, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ItemsBySet(setID)
	if err != nil {
		return nil, err
	}

	served := make([]models.ServedQuizItem, 0, len(items))
	for _, item := range items {
		served = append(served, models.ServedQuizItem{
			ID:           item.ID,
			NodeID:       item.NodeID,
			QuestionType: item.QuestionType,
			Question:     item.Question,
			Options:      item.Options,
			IsAssessment: item.IsAssessment,
		})
	}

	return &models.QuizSetResponse{Set: *set, Items: served}, nil
}

// SetsForDocument lists a document's quiz sets, newest first.
func (s *Service) SetsForDocument(userID, documentID int64) ([]models.QuizSet, error) {
	if _, err := s.nodes.DocumentForUser(documentID, userID); err != nil {
		return nil, err
	}
	sets, err := s.store.SetsByDocument(documentID)
	if err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []models.QuizSet{}
	}
	return sets, nil
}

// DeleteSet removes a set after checking ownership.
func (s *Service) DeleteSet(ctx context.Context, userID, setID int64) error {
	if _, err := s.store.SetForUser(setID, userID); err != nil {
		return err
	}
	return s.store.DeleteSet(ctx, setID)
}

// SubmitAnswer grades one answer, moves the item's node to known or learning,
// and returns the corrected item with fresh document progress.
func (s *Service) SubmitAnswer(userID, itemID int64, answer string) (*models.SubmitAnswerResponse, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("answer is required: %w", models.ErrInvalidInput)
	}

	item, err := s.store.ItemForUser(itemID, userID)
	if err != nil {
		return nil, err
	}

	correct := answerCorrect(item, answer)

	var status models.NodeStatus
	if item.NodeID != nil {
		status = models.StatusLearning
		if correct {
			status = models.StatusKnown
		}
		if err := s.nodes.UpsertStatus(userID, *item.NodeID, status); err != nil {
			return nil, err
		}
	}

	if err := s.store.TouchSubject(item.DocumentID); err != nil {
		log.Printf("[quiz] WARN: failed to touch subject for document %d: %v", item.DocumentID, err)
	}

	total, known, err := s.nodes.NodeCounts(item.DocumentID, userID)
	if err != nil {
		return nil, err
	}

	return &models.SubmitAnswerResponse{
		Correct:          correct,
		CorrectAnswer:    item.CorrectAnswer,
		Explanation:      item.Explanation,
		SourceQuote:      item.SourceQuote,
		NodeStatus:       status,
		DocumentProgress: knowledge.DocumentPercent(known, total),
	}, nil
}

// answerCorrect compares an answer to the stored one. True/false answers
// compare case-insensitively; multiple choice requires the exact option
// text.
func answerCorrect(item *models.QuizItem, answer string) bool {
	answer = strings.TrimSpace(answer)
	if item.QuestionType == models.QuestionTrueFalse {
		return strings.EqualFold(answer, item.CorrectAnswer)
	}
	return answer == item.CorrectAnswer
}
