package processor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewIdempotencyKey returns "<prefix>-<unix nanos>-<random>" for create calls.
// Providers cap key length; the result stays under 64 characters.
func NewIdempotencyKey(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "req"
	}
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UTC().UnixNano(), suffix)
}
