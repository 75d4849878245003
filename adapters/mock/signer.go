package mock

import (
	"errors"
	"sync"
)

// Signer implements reconcile.Signer without any real key material.
type Signer struct {
	mu     sync.Mutex
	addr   string
	closed bool
}

func NewSigner(addr string) *Signer {
	return &Signer{addr: addr}
}

func (s *Signer) Address() string {
	return s.addr
}

func (s *Signer) SignDigest(digest []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("signer is closed")
	}
	sig := make([]byte, 65)
	copy(sig, digest)
	return sig, nil
}

func (s *Signer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close was called; used to assert the settler
// releases the signing capability when a pass ends.
func (s *Signer) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
