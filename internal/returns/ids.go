package returns

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

type IDGen interface {
	New() (string, error)
}

// rmaGen issues RMA-<ULID> codes. ULIDs sort by creation time, so RMA
// numbers do too.
type rmaGen struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newRMAGen() *rmaGen {
	return &rmaGen{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *rmaGen) New() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.entropy)
	if err != nil {
		return "", err
	}
	return "RMA-" + id.String(), nil
}

type uuidGen struct{}

func (uuidGen) New() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
