package classifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

const (
	classifySystemPrompt = "You are a news categorization expert. Always respond with only the category name from the provided list."
	suggestSystemPrompt  = "You are a news categorization expert. Return only category names separated by commas."

	maxSuggestions = 3
)

var errNotConfigured = errors.New("classifier not configured")

// Classifier assigns vocabulary labels to articles through an OpenAI
// compatible chat completion endpoint. A Classifier without credentials is
// valid and degrades every call to the default label.
type Classifier struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	configured bool
}

// New builds a classifier from cfg. When VerifyOnStartup is set the
// credentials are checked by listing models; a failure leaves the
// classifier unconfigured rather than failing startup.
func New(ctx context.Context, cfg config.ClassifierConfig) *Classifier {
	c := &Classifier{
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
	if c.model == "" {
		c.model = openai.GPT3Dot5Turbo
	}

	if cfg.APIKey == "" {
		log.Printf("Failed to initialize OpenAI client: OPENAI_API_KEY not set")
		return c
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	c.client = openai.NewClientWithConfig(clientConfig)

	if cfg.VerifyOnStartup {
		vctx, cancel := c.callContext(ctx)
		defer cancel()
		if _, err := c.client.ListModels(vctx); err != nil {
			log.Printf("Failed to initialize OpenAI client: %v", err)
			return c
		}
	}

	c.configured = true
	log.Printf("OpenAI client initialized successfully (model %s).", c.model)
	return c
}

// Configured reports whether the classifier holds usable credentials
func (c *Classifier) Configured() bool {
	return c != nil && c.configured
}

// ClassifyOne returns a vocabulary label for the article and true, or the
// default label and false on any failure.
func (c *Classifier) ClassifyOne(ctx context.Context, title, description string) (string, bool) {
	label, err := c.classify(ctx, title, description)
	if err != nil {
		if !errors.Is(err, errNotConfigured) {
			log.Printf("Error categorizing article '%s': %v", title, err)
		}
		return models.DefaultCategory, false
	}
	return label, true
}

// ClassifyBatch labels every article whose category is not already in the
// vocabulary. The output has the same length and order as the input; an
// article that cannot be classified gets the default label and is marked
// as not AI-assigned.
func (c *Classifier) ClassifyBatch(ctx context.Context, articles []models.Article) []models.Article {
	if !c.Configured() {
		log.Printf("Skipping AI batch categorization: client not configured.")
	}

	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if models.IsClassifierCategory(a.Category) {
			a.Category = strings.ToLower(strings.TrimSpace(a.Category))
			out = append(out, a)
			continue
		}

		a.Category, a.AICategorized = c.ClassifyOne(ctx, a.Title, a.Description)
		out = append(out, a)
	}
	return out
}

// Suggest returns up to three vocabulary labels in order of relevance. It
// falls back to the default label when nothing usable comes back.
func (c *Classifier) Suggest(ctx context.Context, title, description string) []string {
	fallback := []string{models.DefaultCategory}
	if !c.Configured() {
		return fallback
	}

	prompt := fmt.Sprintf(`Analyze the following news article and suggest the top 3 most appropriate categories from this list:
%s

Article:
%s

Return only the category names separated by commas, in order of relevance.`,
		strings.Join(models.ClassifierCategories, ", "), articleContent(title, description))

	answer, err := c.complete(ctx, suggestSystemPrompt, prompt, 50, 0.2)
	if err != nil {
		log.Printf("Error getting category suggestions: %v", err)
		return fallback
	}

	var suggestions []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(answer, ",") {
		label := normalizeLabel(part)
		if !models.IsClassifierCategory(label) || seen[label] {
			continue
		}
		seen[label] = true
		suggestions = append(suggestions, label)
		if len(suggestions) == maxSuggestions {
			break
		}
	}

	if len(suggestions) == 0 {
		return fallback
	}
	return suggestions
}

func (c *Classifier) classify(ctx context.Context, title, description string) (string, error) {
	if !c.Configured() {
		return "", errNotConfigured
	}

	prompt := fmt.Sprintf(`Analyze the following news article and categorize it into one of these predefined categories:
%s

Article:
%s

Return only the category name, nothing else. Choose the most appropriate category from the list above.`,
		strings.Join(models.ClassifierCategories, ", "), articleContent(title, description))

	answer, err := c.complete(ctx, classifySystemPrompt, prompt, 10, 0.1)
	if err != nil {
		return "", err
	}

	label := normalizeLabel(answer)
	if !models.IsClassifierCategory(label) {
		return "", fmt.Errorf("label %q outside vocabulary", answer)
	}
	return label, nil
}

func (c *Classifier) complete(ctx context.Context, system, user string, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Classifier) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func articleContent(title, description string) string {
	content := "Title: " + title
	if description != "" {
		content += "\nDescription: " + description
	}
	return content
}

// normalizeLabel lower-cases the answer and strips quotes and punctuation
// models tend to add around a single word.
func normalizeLabel(s string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(s)), " \t\n\"'`.")
}
