package sms

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type MockCall struct {
	To   string
	Body string
}

// MockClient 可配置的短信客户端 mock，实现 Client 接口
type MockClient struct {
	// FailFor 命中的号码返回错误
	FailFor map[string]bool
	Calls   []MockCall
	mu      sync.Mutex
}

func NewMockClient() *MockClient {
	return &MockClient{
		Calls:   make([]MockCall, 0),
		FailFor: make(map[string]bool),
	}
}

func (m *MockClient) Provider() string {
	return "mock"
}

func (m *MockClient) Send(ctx context.Context, to, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{To: to, Body: body})

	if m.FailFor[to] {
		return "", errors.New("mock sms send failure")
	}
	return fmt.Sprintf("mock-%d", len(m.Calls)), nil
}

// Sent 返回调用记录的副本
func (m *MockClient) Sent() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.Calls))
	copy(out, m.Calls)
	return out
}
