// Package models defines the shared domain types threaded through a Nexus
// run: conversation messages, routing decisions, and per-query run state.
package models

import "encoding/json"

// Role identifies the author of a message in a run's history.
type Role string

const (
	// RoleUser is the querying user.
	RoleUser Role = "user"
	// RoleSpecialist is a specialist agent's reasoning output.
	RoleSpecialist Role = "specialist"
	// RoleCapability is the result of a capability invocation, keyed to a
	// prior tool call by ToolResult.CallID.
	RoleCapability Role = "capability"
)

// ToolCall is a specialist's request to invoke a named capability.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult carries the outcome of one capability invocation back into the
// history, tagged with the originating call ID.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// Message is one entry in a run's history. Messages are immutable once
// appended; history is append-only and order-preserving.
type Message struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if len(m.ToolCalls) > 0 {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, call := range m.ToolCalls {
			out.ToolCalls[i] = call
			if call.Input != nil {
				out.ToolCalls[i].Input = append(json.RawMessage(nil), call.Input...)
			}
		}
	}
	if m.ToolResult != nil {
		result := *m.ToolResult
		out.ToolResult = &result
	}
	return out
}

// CloneHistory deep-copies a history slice. Each specialist loop branches
// its own copy from the root snapshot so loops never observe each other's
// intermediate tool traffic.
func CloneHistory(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// UserMessage builds a plain user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// CapabilityMessage builds a capability-result message for the given call.
func CapabilityMessage(callID, content string, isError bool) Message {
	return Message{
		Role: RoleCapability,
		ToolResult: &ToolResult{
			CallID:  callID,
			Content: content,
			IsError: isError,
		},
	}
}
