package tool

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// GenerateULID returns a lexicographically sortable id. Ids generated within
// the same millisecond are strictly increasing.
func GenerateULID(now time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), ulidEntropy).String()
}
