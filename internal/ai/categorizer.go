package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fleetops/receipt-ocr-service/internal/models"
)

// defaultModel is used when the config names no model.
const defaultModel = "gpt-4o-mini"

// Categorizer asks an OpenAI-compatible model to suggest categories for line
// items the keyword matcher could not classify. It is strictly best-effort:
// any failure leaves the items as they were.
type Categorizer struct {
	client *openai.Client
	model  string
}

// NewCategorizer builds a categorizer from config. Returns nil when the
// feature is disabled or no API key is set.
func NewCategorizer(cfg models.AIConfig) *Categorizer {
	if !cfg.Enabled || cfg.OpenAI.APIKey == "" {
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAI.BaseURL
	}

	model := cfg.OpenAI.Model
	if model == "" {
		model = defaultModel
	}

	return &Categorizer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

var validCategories = map[string]bool{
	models.CategoryVehicleParts: true,
	models.CategoryFuel:         true,
	models.CategoryTools:        true,
	models.CategoryEquipment:    true,
	models.CategorySupplies:     true,
	models.CategoryOther:        true,
}

// SuggestCategories fills in categories for items currently marked Other.
// The structured record is never at risk: items keep their existing category
// on any error, timeout or unusable model output.
func (c *Categorizer) SuggestCategories(ctx context.Context, items []models.LineItem) {
	if c == nil {
		return
	}

	var names []string
	var indexes []int
	for i, item := range items {
		if item.Category == models.CategoryOther && item.ItemName != "" {
			names = append(names, item.ItemName)
			indexes = append(indexes, i)
		}
	}
	if len(names) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(`Classify each purchased item into exactly one category from this list:
Vehicle_Parts, Fuel, Tools, Equipment, Supplies, Other

Items:
%s

Respond with a JSON array of category strings, one per item, in the same order. No other text.`,
		strings.Join(names, "\n"))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		log.Printf("category suggestion failed: %v", err)
		return
	}
	if len(resp.Choices) == 0 {
		return
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var categories []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &categories); err != nil {
		log.Printf("category suggestion returned unparseable output: %v", err)
		return
	}
	if len(categories) != len(indexes) {
		return
	}

	for k, idx := range indexes {
		if validCategories[categories[k]] {
			items[idx].Category = categories[k]
		}
	}
}
