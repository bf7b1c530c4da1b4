package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studyforge/backend/internal/models"
)

type treeEnvelope struct {
	Nodes []models.RawNode `json:"nodes"`
}

type quizEnvelope struct {
	Items []models.RawQuizItem `json:"items"`
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ParseTreeResponse decodes a tree generation response and checks each node's
// shape. Structural tree invariants (parent resolution, levels, cycles) are
// the ingest path's job; this only rejects responses that are malformed as
// individual records.
func ParseTreeResponse(responseBody string) ([]models.RawNode, error) {
	cleaned := stripCodeFences(responseBody)

	var env treeEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	var errs []string
	if len(env.Nodes) == 0 {
		return nil, &ValidationError{Errors: []string{"no nodes in response"}}
	}

	for i, n := range env.Nodes {
		num := i + 1
		if strings.TrimSpace(n.ID) == "" {
			errs = append(errs, fmt.Sprintf("node %d: empty id", num))
		}
		if strings.TrimSpace(n.Name) == "" {
			errs = append(errs, fmt.Sprintf("node %d: empty name", num))
		}
		if n.Level < 0 || n.Level > 2 {
			errs = append(errs, fmt.Sprintf("node %d: level %d outside range [0, 2]", num, n.Level))
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return env.Nodes, nil
}

// ParseQuizResponse decodes a quiz generation response and rejects items that
// are structurally unusable. An empty source_quote is NOT an error here: the
// quiz service filters and counts those separately.
func ParseQuizResponse(responseBody string) ([]models.RawQuizItem, error) {
	cleaned := stripCodeFences(responseBody)

	var env quizEnvelope
	if err := json.Unmarshal([]byte(cleaned), &env); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	var errs []string
	if len(env.Items) == 0 {
		return nil, &ValidationError{Errors: []string{"no items in response"}}
	}

	for i, item := range env.Items {
		num := i + 1

		if item.NodeID <= 0 {
			errs = append(errs, fmt.Sprintf("item %d: missing node_id", num))
		}
		if strings.TrimSpace(item.Question) == "" {
			errs = append(errs, fmt.Sprintf("item %d: empty question", num))
		}
		if strings.TrimSpace(item.Explanation) == "" {
			errs = append(errs, fmt.Sprintf("item %d: empty explanation", num))
		}

		switch item.QuestionType {
		case models.QuestionMultipleChoice:
			if len(item.Options) != 4 {
				errs = append(errs, fmt.Sprintf("item %d: expected 4 options, got %d", num, len(item.Options)))
			}
		case models.QuestionTrueFalse:
			if len(item.Options) != 2 || item.Options[0] != "true" || item.Options[1] != "false" {
				errs = append(errs, fmt.Sprintf("item %d: true_false options must be [\"true\", \"false\"]", num))
			}
		default:
			errs = append(errs, fmt.Sprintf("item %d: invalid question_type %q", num, item.QuestionType))
		}

		if !containsOption(item.Options, item.CorrectAnswer) {
			errs = append(errs, fmt.Sprintf("item %d: correct_answer not among options", num))
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return env.Items, nil
}

func containsOption(options []string, answer string) bool {
	for _, o := range options {
		if o == answer {
			return true
		}
	}
	return false
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
