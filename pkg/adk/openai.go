package adk

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/user/vulnscan-adk/pkg/httpclient"
)

const openAIBaseURL = "https://api.openai.com/v1"

type OpenAIProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	client  *resty.Client
}

func NewOpenAIProvider(apiKey, model string, logger hclog.Logger) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: openAIBaseURL,
		client:  httpclient.New(logger),
	}
}

type openAIModels struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the chat-capable model ids, sorted.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	var result openAIModels
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.APIKey).
		SetResult(&result).
		Get(p.BaseURL + "/models")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API returned status: %s", resp.Status())
	}

	var models []string
	for _, m := range result.Data {
		if strings.HasPrefix(m.ID, "gpt-") || strings.HasPrefix(m.ID, "o") {
			models = append(models, m.ID)
		}
	}
	sort.Strings(models)
	return models, nil
}

func (p *OpenAIProvider) GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error) {
	return "", nil, ErrChatUnsupported
}
