package mocks

import (
	"github.com/rsheldon/quorum/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// SecretResults is a queue of results to return from Secret
	SecretResults []string
	secretIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// Secret returns the next queued result, or "mock-secret" if none remaining
func (r *MockRandom) Secret() string {
	if r.secretIndex >= len(r.SecretResults) {
		return "mock-secret"
	}
	result := r.SecretResults[r.secretIndex]
	r.secretIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueSecret adds values to the Secret result queue
func (r *MockRandom) QueueSecret(values ...string) {
	r.SecretResults = append(r.SecretResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.IntnResults = nil
	r.intnIndex = 0
	r.SecretResults = nil
	r.secretIndex = 0
}
