package testutil

import "sync"

// NonceSequence hands out transaction nonces.
//
// Two transactions with the same actions need different nonces to get
// different IDs. A fresh sequence yields the same nonces in the same order,
// so a scenario run twice produces identical transaction IDs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type NonceSequence struct {
	mu    sync.Mutex
	nonce int64
}

// NewNonceSequence creates a sequence whose first nonce is 1.
func NewNonceSequence() *NonceSequence {
	return &NonceSequence{}
}

// Next increments and returns the next nonce.
func (s *NonceSequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonce++
	return s.nonce
}

// Current returns the last nonce handed out, 0 if none.
func (s *NonceSequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce
}

// Reset starts the sequence over. The next call to Next returns 1.
func (s *NonceSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonce = 0
}
