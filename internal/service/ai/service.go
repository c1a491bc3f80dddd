// Package ai answers chat messages with a hosted language model through eino.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"moodchat/internal/config"
)

const DefaultSystemPrompt = "You are a warm, upbeat companion in a small chat widget. " +
	"Ask for the user's name if you don't know it, notice how they feel, " +
	"and answer in one or two short sentences with a fitting emoji."

type Options struct {
	// Model overrides the provider's configured model.
	Model        string
	SystemPrompt string
	WebSearch    bool
}

// Responder sends each message as a single-turn conversation to the model.
type Responder struct {
	chatModel model.ToolCallingChatModel
	agent     *react.Agent
	prompt    string
}

// NewResponder builds the chat model for provider ("openai", "claude" or "gemini").
func NewResponder(ctx context.Context, provider string, provCfg config.ProviderConfig, opts Options) (*Responder, error) {
	modelType := opts.Model
	if modelType == "" {
		modelType = provCfg.Model
	}
	if modelType == "" {
		return nil, fmt.Errorf("provider %s: model is required", provider)
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   modelType,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelType,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     modelType,
			BaseURL:   baseURLPtr,
			MaxTokens: 512,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	var tools []tool.BaseTool
	if opts.WebSearch {
		if ws := InitWebSearch(ctx); ws != nil {
			tools = append(tools, ws)
		}
	}
	return newResponder(ctx, chatModel, tools, opts.SystemPrompt)
}

func newResponder(ctx context.Context, chatModel model.ToolCallingChatModel, tools []tool.BaseTool, prompt string) (*Responder, error) {
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	r := &Responder{chatModel: chatModel, prompt: prompt}
	if len(tools) > 0 {
		agent, err := react.NewAgent(ctx, &react.AgentConfig{
			ToolCallingModel: chatModel,
			ToolsConfig: compose.ToolsNodeConfig{
				Tools: tools,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("init react agent: %w", err)
		}
		r.agent = agent
	}
	return r, nil
}

// Reply asks the model for an answer to text.
func (r *Responder) Reply(ctx context.Context, text string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(r.prompt),
		schema.UserMessage(text),
	}

	var (
		out *schema.Message
		err error
	)
	if r.agent != nil {
		out, err = r.agent.Generate(ctx, messages)
	} else {
		out, err = r.chatModel.Generate(ctx, messages)
	}
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	if out == nil {
		return "", errors.New("model returned no message")
	}
	content := strings.TrimSpace(out.Content)
	log.Debug().Int("chars", len(content)).Msg("model reply")
	return content, nil
}
