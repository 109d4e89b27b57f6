package postgresadapter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"civicvote/contexts/participation/ballot-engine/ports"
)

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// SystemRand is the production randomness source for workflow-slot
// resolution and project shuffling.
type SystemRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSystemRand() *SystemRand {
	return &SystemRand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *SystemRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

func (r *SystemRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

var (
	_ ports.Clock       = SystemClock{}
	_ ports.IDGenerator = UUIDGenerator{}
	_ ports.Rand        = (*SystemRand)(nil)
)
