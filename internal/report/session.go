// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package report

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultSessionTTL bounds how long an uploaded report waits for its phase-2
// mapping decisions before it is evicted.
const defaultSessionTTL = 30 * time.Minute

// Session is a pending upload between phase 1 (header discovery) and phase 2
// (mapping decisions + ingestion).
type Session struct {
	ID      string
	Report  *Report
	Month   int
	Year    int
	Created time.Time
}

// Sessions is an in-memory, TTL-bounded store of pending upload sessions.
type Sessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
}

// NewSessions creates a session store. A non-positive ttl uses the default.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Put stores a parsed report awaiting mapping decisions and returns its
// session ID.
func (s *Sessions) Put(report *Report, month, year int) *Session {
	sess := &Session{
		ID:      uuid.NewString(),
		Report:  report,
		Month:   month,
		Year:    year,
		Created: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns a pending session by ID, or false when it is unknown or
// expired.
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete removes a session once its report has been ingested.
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// evictExpiredLocked drops sessions older than the TTL. Caller must hold mu.
func (s *Sessions) evictExpiredLocked() {
	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.Created.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// PreviousMonth returns the calendar month preceding now, the default target
// period for uploads.
func PreviousMonth(now time.Time) (month, year int) {
	// Anchor to the first of the month so day overflow (e.g. March 31) can't
	// skip February.
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := firstOfMonth.AddDate(0, 0, -1)
	return int(prev.Month()), prev.Year()
}
