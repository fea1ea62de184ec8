package llm

import "context"

// FakeClient is a scriptable test double, grounded on the
// test/e2e/mock_llm.go pattern: callers enqueue canned responses and the
// client serves them in order, recording every call it received.
type FakeClient struct {
	ChatResponses          []string
	ChatErr                error
	ChatWithToolsResponses []ChatWithToolsResponse
	ChatWithToolsErr       error

	ChatCalls          []ChatCall
	ChatWithToolsCalls []ChatWithToolsCall

	chatIdx int
	toolIdx int
}

// ChatWithToolsResponse is one canned response for ChatWithTools.
type ChatWithToolsResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// ChatCall records one invocation of Chat for assertions.
type ChatCall struct {
	Messages    []ConversationMessage
	Temperature float64
}

// ChatWithToolsCall records one invocation of ChatWithTools for assertions.
type ChatWithToolsCall struct {
	Messages    []ConversationMessage
	Tools       []ToolDefinition
	Temperature float64
}

var _ Client = (*FakeClient)(nil)

func (f *FakeClient) Chat(ctx context.Context, messages []ConversationMessage, temperature float64) (string, error) {
	f.ChatCalls = append(f.ChatCalls, ChatCall{Messages: messages, Temperature: temperature})
	if f.ChatErr != nil {
		return "", f.ChatErr
	}
	if f.chatIdx >= len(f.ChatResponses) {
		return "", ErrUnavailable
	}
	resp := f.ChatResponses[f.chatIdx]
	f.chatIdx++
	return resp, nil
}

func (f *FakeClient) ChatWithTools(ctx context.Context, messages []ConversationMessage, tools []ToolDefinition, temperature float64) (string, []ToolCall, error) {
	f.ChatWithToolsCalls = append(f.ChatWithToolsCalls, ChatWithToolsCall{Messages: messages, Tools: tools, Temperature: temperature})
	if f.ChatWithToolsErr != nil {
		return "", nil, f.ChatWithToolsErr
	}
	if f.toolIdx >= len(f.ChatWithToolsResponses) {
		return "", nil, ErrUnavailable
	}
	resp := f.ChatWithToolsResponses[f.toolIdx]
	f.toolIdx++
	return resp.Text, resp.ToolCalls, nil
}
