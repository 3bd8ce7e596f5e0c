package mocks

import (
	"context"
	"sync"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/service"
)

var (
	_ service.Mailer   = (*MockMailer)(nil)
	_ events.Publisher = (*MockPublisher)(nil)
)

// SentMail is one confirmation captured by MockMailer
type SentMail struct {
	Email string
	Link  string
}

// MockMailer records confirmation links instead of sending them
type MockMailer struct {
	mu      sync.Mutex
	Sent    []SentMail
	SendErr error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) SendConfirmation(ctx context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, SentMail{Email: email, Link: link})
	return nil
}

// Last returns the most recent mail, if any
func (m *MockMailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// MockPublisher records published events
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.Event
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(e events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, e)
}

// Count returns the number of published events
func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}
