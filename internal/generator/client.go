package generator

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/studyforge/backend/internal/models"
)

// LLMClient is the interface both generator implementations satisfy.
// The pdf argument may be nil when the prompt needs no document context.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string, pdf []byte) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Generator wraps an LLMClient and adds document-study batch methods.
type Generator struct {
	llm   LLMClient
	model string
}

func NewGenerator() *Generator {
	var llm LLMClient
	model := "mock"

	if os.Getenv("MOCK_GENERATOR") == "true" {
		llm = NewMockClient()
		log.Println("Generator using mock data")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}
		llm = NewAPIClient(model)
		log.Println("Generator using Anthropic API:", model)
	}

	return &Generator{llm: llm, model: model}
}

// NewGeneratorWith builds a Generator around an explicit client. Used by tests.
func NewGeneratorWith(llm LLMClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

func (g *Generator) ModelName() string {
	return g.model
}

// GenerateKnowledgeTree asks the model to decompose a PDF into a concept
// hierarchy. Node IDs in the result are transient ("node_1", "node_2", ...)
// and only meaningful within the batch.
func (g *Generator) GenerateKnowledgeTree(ctx context.Context, pdf []byte, title string) ([]models.RawNode, *LLMResponse, error) {
	systemPrompt := TreeSystemPrompt()
	userPrompt := BuildTreeUserPrompt(title)

	resp, err := g.llm.Generate(ctx, systemPrompt, userPrompt, pdf)
	if err != nil {
		return nil, nil, fmt.Errorf("generate knowledge tree: %w", err)
	}

	nodes, err := ParseTreeResponse(resp.Content)
	if err != nil {
		return nil, resp, fmt.Errorf("parse tree response: %w", err)
	}

	return nodes, resp, nil
}

// GenerateQuizItems asks the model for questions targeting the given nodes.
// Every item must cite a verbatim source_quote from the document; items that
// come back without one are filtered by the quiz service, not here.
func (g *Generator) GenerateQuizItems(ctx context.Context, pdf []byte, nodes []models.KnowledgeNode, kind models.QuizSetKind, perNode int) ([]models.RawQuizItem, *LLMResponse, error) {
	systemPrompt := QuizSystemPrompt()
	userPrompt := BuildQuizUserPrompt(nodes, kind, perNode)

	resp, err := g.llm.Generate(ctx, systemPrompt, userPrompt, pdf)
	if err != nil {
		return nil, nil, fmt.Errorf("generate quiz items: %w", err)
	}

	items, err := ParseQuizResponse(resp.Content)
	if err != nil {
		return nil, resp, fmt.Errorf("parse quiz response: %w", err)
	}

	return items, resp, nil
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string, pdf []byte) (*LLMResponse, error) {
	blocks := []anthropic.ContentBlockParamUnion{}
	if len(pdf) > 0 {
		blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
			Data: base64.StdEncoding.EncodeToString(pdf),
		}))
	}
	blocks = append(blocks, anthropic.NewTextBlock(userPrompt))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   8192,
		Temperature: param.NewOpt(0.2),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response: %w", models.ErrUpstreamFailure)
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleepDuration):
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %v: %w", lastErr, models.ErrUpstreamFailure)
}

// ── MockClient — Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

var nodeIDPattern = regexp.MustCompile(`node (\d+):`)

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string, pdf []byte) (*LLMResponse, error) {
	var mockJSON string
	if strings.Contains(systemPrompt, "quiz") || strings.Contains(systemPrompt, "question") {
		mockJSON = buildMockQuizJSON(userPrompt)
	} else {
		mockJSON = buildMockTreeJSON()
	}
	return &LLMResponse{
		Content:      mockJSON,
		PromptTokens: 1500,
		OutputTokens: 3000,
	}, nil
}

func buildMockTreeJSON() string {
	return `{"nodes":[
		{"id":"node_1","parent_id":null,"name":"[Mock] Core Concepts","description":"[Mock] The foundational ideas the document builds on.","level":0,"prerequisites":[]},
		{"id":"node_2","parent_id":"node_1","name":"[Mock] Definitions","description":"[Mock] Key terms introduced early in the text.","level":1,"prerequisites":[]},
		{"id":"node_3","parent_id":"node_1","name":"[Mock] Principles","description":"[Mock] The main principles derived from the definitions.","level":1,"prerequisites":["[Mock] Definitions"]},
		{"id":"node_4","parent_id":"node_3","name":"[Mock] First Principle","description":"[Mock] A detailed look at the first principle.","level":2,"prerequisites":[]},
		{"id":"node_5","parent_id":"node_3","name":"[Mock] Second Principle","description":"[Mock] A detailed look at the second principle.","level":2,"prerequisites":["[Mock] First Principle"]},
		{"id":"node_6","parent_id":null,"name":"[Mock] Applications","description":"[Mock] How the material is applied in practice.","level":0,"prerequisites":[]}
	]}`
}

// buildMockQuizJSON reads the target node IDs back out of the user prompt so
// mock items reference real rows during local development.
func buildMockQuizJSON(userPrompt string) string {
	matches := nodeIDPattern.FindAllStringSubmatch(userPrompt, -1)

	items := "["
	for i, m := range matches {
		if i > 0 {
			items += ","
		}
		qType := "multiple_choice"
		options := `["[Mock] Option A","[Mock] Option B","[Mock] Option C","[Mock] Option D"]`
		correct := "[Mock] Option A"
		if i%3 == 2 {
			qType = "true_false"
			options = `["true","false"]`
			correct = "true"
		}
		items += fmt.Sprintf(`{"node_id":%s,"question_type":"%s","question":"[Mock] Which statement best describes this concept?","options":%s,"correct_answer":"%s","explanation":"[Mock] The correct answer follows directly from the cited passage.","source_quote":"[Mock] A verbatim sentence from the document supporting this item."}`,
			m[1], qType, options, correct)
	}
	items += "]"

	return fmt.Sprintf(`{"items":%s}`, items)
}
