package generator

import (
	"fmt"
	"strings"

	"github.com/studyforge/backend/internal/models"
)

// TreeSystemPrompt instructs the model to decompose an attached PDF into a
// concept hierarchy. The transient IDs it assigns are remapped to database
// IDs at ingest time.
func TreeSystemPrompt() string {
	return `You are an expert curriculum designer. You will receive a study document (PDF). Decompose it into a knowledge tree of the concepts a learner must master.

Rules:
- Nodes form a forest at most 3 levels deep: level 0 (major topics), level 1 (subtopics), level 2 (specific concepts).
- Every node gets a transient id of the form "node_1", "node_2", ... unique within your response.
- A level-0 node has "parent_id": null. Any other node's parent_id must reference a node in this same response, and its level must be exactly its parent's level plus one.
- "prerequisites" lists names of other concepts (from this tree) a learner should know first. Use an empty array when there are none.
- Cover the document's substance. Do not invent concepts the document never discusses.
- Keep names short (under 10 words) and descriptions to one or two sentences.

Respond with ONLY a JSON object, no prose and no code fences:

{
  "nodes": [
    {"id": "node_1", "parent_id": null, "name": "...", "description": "...", "level": 0, "prerequisites": []},
    {"id": "node_2", "parent_id": "node_1", "name": "...", "description": "...", "level": 1, "prerequisites": ["..."]}
  ]
}`
}

func BuildTreeUserPrompt(title string) string {
	return fmt.Sprintf(`The attached document is titled %q. Build its knowledge tree now. Respond with only the JSON object.`, title)
}

// QuizSystemPrompt instructs the model to write grounded quiz questions.
// The verbatim source_quote is the anti-hallucination anchor: items without
// one are discarded downstream.
func QuizSystemPrompt() string {
	return `You are an expert quiz writer. You will receive a study document (PDF) and a list of target concepts. Write questions that test understanding of those concepts using ONLY material from the document.

Rules:
- Each item targets exactly one of the listed concepts, identified by its numeric node_id.
- "question_type" is "multiple_choice" (exactly 4 options, one correct) or "true_false" (options are exactly ["true", "false"]).
- "correct_answer" must match one of the options verbatim.
- "source_quote" must be a VERBATIM quote from the document that supports the correct answer. Never paraphrase it. If you cannot find a supporting quote, set source_quote to an empty string rather than inventing one.
- "explanation" says in one or two sentences why the correct answer is right.
- Do not test trivia (page numbers, formatting). Test understanding.

Respond with ONLY a JSON object, no prose and no code fences:

{
  "items": [
    {"node_id": 1, "question_type": "multiple_choice", "question": "...", "options": ["...", "...", "...", "..."], "correct_answer": "...", "explanation": "...", "source_quote": "..."}
  ]
}`
}

func BuildQuizUserPrompt(nodes []models.KnowledgeNode, kind models.QuizSetKind, perNode int) string {
	var b strings.Builder

	if kind == models.QuizAssessment {
		b.WriteString("Write an initial assessment: exactly ONE question per concept below, gauging whether the learner already knows it.\n\n")
	} else {
		fmt.Fprintf(&b, "Write a practice set: up to %d questions per concept below, varying angle and difficulty.\n\n", perNode)
	}

	b.WriteString("Target concepts:\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "- node %d: %q (level %d)", n.ID, n.Name, n.Level)
		if n.Description != "" {
			fmt.Fprintf(&b, " %s", n.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with only the JSON object.")
	return b.String()
}
