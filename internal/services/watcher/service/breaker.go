package service

import "sync"

// failureBreaker counts consecutive failed scans across every query
type failureBreaker struct {
	mu        sync.Mutex
	n         int
	threshold int
}

// Fail records a failure; trip is true only on the failure that reaches the threshold
func (b *failureBreaker) Fail() (count int, trip bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	return b.n, b.n == b.threshold
}

// Reset zeroes the counter after any successful scan
func (b *failureBreaker) Reset() {
	b.mu.Lock()
	b.n = 0
	b.mu.Unlock()
}

// Count is the current streak
func (b *failureBreaker) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}
