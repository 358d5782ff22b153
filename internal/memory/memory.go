// Package memory implements C12, conversation memory (spec.md §4.12): a
// per-session append-only message log with a rolling LLM summary once the
// retained window is exceeded. Grounded in the original service's
// get_conversation_context (qa.py): a fixed recent-message window plus an
// optional summary of everything older, generalized here with per-session
// mutex serialization since concurrent Q&A requests may append to the same
// session.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clausecompass/internal/llm"
	"clausecompass/internal/store"
)

// Context is what C13 needs to ground a prompt in prior turns.
type Context struct {
	Messages []*store.Message
	Summary  string
	Used     bool
}

// Memory serializes appends per session (spec.md §5: each ingestion/query
// task is independent, but writes to one session's log must not race) and
// summarizes overflow via an LLM client.
type Memory struct {
	store       *store.Store
	summarizer  llm.Client
	maxMessages int

	locks sync.Map // sessionID -> *sync.Mutex
}

// New constructs a Memory. maxMessages defaults to 10 (spec.md §4.12).
func New(st *store.Store, summarizer llm.Client, maxMessages int) *Memory {
	if maxMessages <= 0 {
		maxMessages = 10
	}
	return &Memory{store: st, summarizer: summarizer, maxMessages: maxMessages}
}

func (m *Memory) lockFor(sessionID string) *sync.Mutex {
	v, _ := m.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Append adds a message to a session's log under that session's lock, and
// triggers a rolling summary when the log has grown past the retained
// window.
func (m *Memory) Append(ctx context.Context, sessionID string, role store.MessageRole, content string, sources []store.Citation) error {
	lock := m.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	msg := &store.Message{
		ID: uuid.NewString(), SessionID: sessionID, Role: role, Content: content,
		Sources: sources, Timestamp: time.Now(),
	}
	if err := m.store.AppendMessage(ctx, msg); err != nil {
		return err
	}

	count, err := m.store.MessageCount(ctx, sessionID)
	if err != nil || count <= m.maxMessages {
		return nil
	}
	m.summarize(ctx, sessionID)
	return nil
}

// Context returns the last maxMessages messages plus the session's rolling
// summary, if any (spec.md §4.12).
func (m *Memory) Context(ctx context.Context, sessionID string) (Context, error) {
	messages, err := m.store.GetMessages(ctx, sessionID, m.maxMessages)
	if err != nil {
		return Context{}, err
	}

	summary := ""
	if sess, err := m.store.GetSession(ctx, sessionID); err == nil && sess.Summary != nil {
		summary = *sess.Summary
	}

	return Context{
		Messages: messages,
		Summary:  summary,
		Used:     len(messages) > 0 || summary != "",
	}, nil
}

// summarize asks the LLM to fold everything older than the retained
// window into a rolling summary. Failure is non-fatal: the session simply
// keeps its previous summary, since spec.md §4.12 treats the summary as an
// optimization, not a correctness requirement.
func (m *Memory) summarize(ctx context.Context, sessionID string) {
	if m.summarizer == nil {
		return
	}
	messages, err := m.store.GetMessages(ctx, sessionID, m.maxMessages*3)
	if err != nil || len(messages) <= m.maxMessages {
		return
	}

	older := messages[:len(messages)-m.maxMessages]
	var b strings.Builder
	for _, msg := range older {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}

	prompt := "Summarize this conversation excerpt in two or three sentences, preserving any facts a later question might depend on:\n\n" + b.String()
	summary, err := m.summarizer.Generate(ctx, prompt, 300)
	if err != nil || strings.TrimSpace(summary) == "" {
		return
	}
	_ = m.store.UpdateSessionSummary(ctx, sessionID, strings.TrimSpace(summary))
}
