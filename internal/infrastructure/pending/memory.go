package pending

import (
	"sync"
	"time"

	"github.com/ArkLabsHQ/paylink/internal/core/domain"
)

type store struct {
	lock     *sync.RWMutex
	requests map[string]domain.PendingPaymentRequest
}

// NewStore returns an in-memory pending request store. Its content does not
// survive a restart.
func NewStore() domain.PendingRequestStore {
	return &store{
		lock:     &sync.RWMutex{},
		requests: make(map[string]domain.PendingPaymentRequest),
	}
}

func (s *store) Put(req domain.PendingPaymentRequest) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.requests[req.Reference]; ok {
		return domain.ErrReferenceExists
	}
	s.requests[req.Reference] = req
	return nil
}

func (s *store) Get(reference string) (*domain.PendingPaymentRequest, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	req, ok := s.requests[reference]
	if !ok {
		return nil, false
	}
	return &req, true
}

func (s *store) Remove(reference string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.requests, reference)
}

func (s *store) Sweep(olderThan time.Time) int {
	s.lock.Lock()
	defer s.lock.Unlock()

	count := 0
	for ref, req := range s.requests {
		if req.CreatedAt.Before(olderThan) {
			delete(s.requests, ref)
			count++
		}
	}
	return count
}

func (s *store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.requests)
}
