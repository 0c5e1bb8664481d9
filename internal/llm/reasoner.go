package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"nexus/pkg/models"
)

// Reasoner is the narrow interface the router, specialist loops, and
// synthesizer consume. One operation: submit a directive plus a message
// history, get back a message that may carry capability-invocation requests.
type Reasoner interface {
	Generate(ctx context.Context, req GenerateRequest) (*models.Message, error)
}

// GenerateRequest describes one reasoning call.
type GenerateRequest struct {
	// Directive is the system directive for this call.
	Directive string
	// History is the conversation so far, oldest first.
	History []models.Message
	// Tools lists the capabilities the model may request. Empty means a
	// plain text response is expected.
	Tools []anthropic.ToolUnionParam
	// Model overrides the client default when non-empty.
	Model anthropic.Model
	// MaxTokens caps the response size. Zero means the default (4096).
	MaxTokens int64
}

// ServiceError marks a reasoning-service failure (network, timeout, quota).
// A specialist loop treats one as a DONE-forcing degradation, never as a
// fault that aborts sibling loops.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("reasoning service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err is a reasoning-service failure.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// Generate submits one directive + history to the Anthropic Messages API and
// converts the response into a domain message.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*models.Message, error) {
	model := req.Model
	if model == "" {
		model = c.model
	} else {
		model = c.TranslateModel(model)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: req.Directive},
		},
		Messages: historyToParams(req.History),
		Tools:    req.Tools,
	})
	if err != nil {
		return nil, &ServiceError{Err: err}
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	msg := &models.Message{Role: models.RoleSpecialist}
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			msg.Content += variant.Text
		case anthropic.ToolUseBlock:
			msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{
				ID:    variant.ID,
				Name:  variant.Name,
				Input: variant.Input,
			})
		}
	}

	return msg, nil
}

// historyToParams converts domain messages into API message params.
// Consecutive capability-result messages are coalesced into a single user
// turn, since the API expects all tool results for one assistant turn
// together.
func historyToParams(history []models.Message) []anthropic.MessageParam {
	var params []anthropic.MessageParam

	var pendingResults []anthropic.ContentBlockParamUnion
	flushResults := func() {
		if len(pendingResults) > 0 {
			params = append(params, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			flushResults()
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))

		case models.RoleSpecialist:
			flushResults()
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.Input, call.Name))
			}
			if len(blocks) > 0 {
				params = append(params, anthropic.NewAssistantMessage(blocks...))
			}

		case models.RoleCapability:
			if msg.ToolResult != nil {
				pendingResults = append(pendingResults,
					anthropic.NewToolResultBlock(msg.ToolResult.CallID, msg.ToolResult.Content, msg.ToolResult.IsError))
			}
		}
	}
	flushResults()

	return params
}
