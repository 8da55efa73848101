package piidetect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// entityPrompt instructs the model to return exactly the four list-valued
// categories. The wording asks for text verbatim as rendered, because
// resolution back to coordinates is an exact literal search.
const entityPrompt = `Analyze this resume text and extract personal identifiable information.

Return as JSON:
{
  "names": ["Full Name"],
  "companies": ["Company Name 1", "Company Name 2"],
  "schools": ["University Name 1", "University Name 2"],
  "addresses": ["123 Main St, City, State ZIP"]
}

Rules:
- Extract the person's full name (usually at the top of the resume)
- Extract all company names from work experience section
- Extract all school/university names from education section
- Extract full addresses if present (street, city, state)
- Return empty arrays if category not found
- Be precise with exact text as it appears in the resume
- Do NOT include job titles, degrees, or dates

Text:
%s
`

// LLMExtractor implements EntityExtractor on top of a langchaingo model.
type LLMExtractor struct {
	llm     llms.Model
	limiter *rate.Limiter
	timeout time.Duration
}

// LLMOption configures an LLMExtractor.
type LLMOption func(*LLMExtractor)

// WithRequestsPerMinute rate limits collaborator calls. Zero or negative
// disables limiting.
func WithRequestsPerMinute(rpm float64) LLMOption {
	return func(e *LLMExtractor) {
		if rpm > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rpm/60.0), 1)
		}
	}
}

// WithTimeout bounds each collaborator call. A timeout is treated like any
// other extraction failure by the caller.
func WithTimeout(d time.Duration) LLMOption {
	return func(e *LLMExtractor) { e.timeout = d }
}

// NewLLMExtractor wraps an existing model.
func NewLLMExtractor(model llms.Model, opts ...LLMOption) *LLMExtractor {
	e := &LLMExtractor{llm: model, timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewOpenAIExtractor builds an extractor backed by an OpenAI-compatible API.
func NewOpenAIExtractor(apiKey, model string, opts ...LLMOption) (*LLMExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is not set")
	}
	llm, err := openai.New(
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return NewLLMExtractor(llm, opts...), nil
}

// ExtractEntities sends the page text to the model and parses the categorized
// response. Unknown JSON keys are ignored; missing keys come back as empty
// lists.
func (e *LLMExtractor) ExtractEntities(ctx context.Context, pageText string) (Entities, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return Entities{}, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(entityPrompt, pageText)
	completion, err := e.llm.GenerateContent(ctx, []llms.MessageContent{
		{
			Parts: []llms.ContentPart{
				llms.TextContent{Text: prompt},
			},
			Role: llms.ChatMessageTypeHuman,
		},
	}, llms.WithTemperature(0), llms.WithJSONMode())
	if err != nil {
		return Entities{}, fmt.Errorf("error getting response from LLM: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Entities{}, fmt.Errorf("empty response from LLM")
	}

	raw := stripCodeFences(completion.Choices[0].Content)
	var ents Entities
	if err := json.Unmarshal([]byte(raw), &ents); err != nil {
		return Entities{}, fmt.Errorf("unparsable entity response: %w", err)
	}
	return ents, nil
}

// stripCodeFences removes a surrounding markdown code fence some models wrap
// around JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
