// Package normalizer translates source-specific transaction payloads into
// the canonical record model. Normalizers are pure: they never perform
// network I/O and the same payload always yields the same records.
package normalizer

import (
	"github.com/flowledger/crypto-tracker/internal/domain"
)

// Normalizer is the contract every source implements. Implementations are
// interchangeable and selected by the payload's source tag; shared code
// never branches on source type.
type Normalizer interface {
	// Source identifies which payloads this normalizer understands
	Source() domain.Source

	// Normalize translates one raw payload into canonical records. A single
	// payload may expand into more than one record (a DEX swap produces
	// both legs); the full set is returned, never collapsed.
	Normalize(payload domain.RawPayload) ([]domain.Transaction, error)
}
