package memory

import "testing"

func TestLockFor_ReturnsSameMutexForSameSession(t *testing.T) {
	m := New(nil, nil, 0)
	a := m.lockFor("session-1")
	b := m.lockFor("session-1")
	if a != b {
		t.Fatalf("expected the same mutex instance for the same session id")
	}
}

func TestLockFor_ReturnsDistinctMutexesForDifferentSessions(t *testing.T) {
	m := New(nil, nil, 0)
	a := m.lockFor("session-1")
	b := m.lockFor("session-2")
	if a == b {
		t.Fatalf("expected distinct mutexes for different session ids")
	}
}

func TestNew_DefaultsMaxMessagesToTen(t *testing.T) {
	m := New(nil, nil, 0)
	if m.maxMessages != 10 {
		t.Fatalf("expected default max messages 10, got %d", m.maxMessages)
	}
}
