package stream

import (
	"errors"
	"sync"
)

var (
	errClientBusy = errors.New("too many concurrent streams from this client")
	errServerBusy = errors.New("too many concurrent streams")
)

// slots counts open streams per client address and in total.
type slots struct {
	mu       sync.Mutex
	open     map[string]int
	total    int
	perIP    int
	maxTotal int
}

func newSlots(perIP, maxTotal int) *slots {
	return &slots{
		open:     make(map[string]int),
		perIP:    perIP,
		maxTotal: maxTotal,
	}
}

// take reserves a slot for ip, or reports which cap was hit.
func (s *slots) take(ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.total >= s.maxTotal:
		return errServerBusy
	case s.open[ip] >= s.perIP:
		return errClientBusy
	}
	s.open[ip]++
	s.total++
	return nil
}

func (s *slots) give(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open[ip] <= 1 {
		delete(s.open, ip)
	} else {
		s.open[ip]--
	}
	s.total--
}

func (s *slots) held(ip string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[ip]
}
