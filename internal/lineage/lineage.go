// Package lineage maintains the parent/child linkage between canonical
// records and reconstructs full transaction chains. The model is a
// single-parent tree per chain: a child has at most one parent, a parent
// may have many children. Multi-parent provenance (a swap merging two
// input transfers) is a known limitation, not silently supported.
package lineage

import (
	"context"
	"fmt"

	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/store"
)

// maxChainDepth bounds ancestor walks. Honest data never gets close; the
// bound only exists so a corrupted parent loop cannot hang traversal.
const maxChainDepth = 1000

// Service links records and walks chains
type Service struct {
	store store.Store
}

// New creates a lineage service backed by the given store
func New(st store.Store) *Service {
	return &Service{store: st}
}

// Link records that child causally follows from parent. It fails with
// domain.ErrNotFound when either record is absent, domain.ErrAlreadyLinked
// when the child already has a parent, and domain.ErrCycleDetected when
// the edge would make a chain revisit a node. Linking is always an
// explicit operation; ingestion never links automatically.
func (s *Service) Link(ctx context.Context, parentID, childID domain.TxID) error {
	if parentID == childID {
		return fmt.Errorf("%w: %s cannot be its own parent", domain.ErrCycleDetected, childID)
	}

	parent, err := s.store.GetTransactionByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("%w: parent %s", domain.ErrNotFound, parentID)
	}

	child, err := s.store.GetTransactionByID(ctx, childID)
	if err != nil {
		return err
	}
	if child == nil {
		return fmt.Errorf("%w: child %s", domain.ErrNotFound, childID)
	}
	if child.ParentID != nil {
		return fmt.Errorf("%w: %s is already linked to %s", domain.ErrAlreadyLinked, childID, *child.ParentID)
	}

	// Walk the ancestors of the prospective parent; finding the child
	// there means the edge would close a loop.
	current := parent
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= maxChainDepth {
			return fmt.Errorf("%w: ancestor walk from %s", domain.ErrCorruptChain, parentID)
		}
		if *current.ParentID == childID {
			return fmt.Errorf("%w: %s is an ancestor of %s", domain.ErrCycleDetected, childID, parentID)
		}
		current, err = s.store.GetTransactionByID(ctx, *current.ParentID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: dangling parent reference above %s", domain.ErrCorruptChain, parentID)
		}
	}

	return s.store.SetTransactionParent(ctx, childID, parentID)
}

// Chain reconstructs the full lifecycle of the given record by walking
// parent references to the root, returned oldest ancestor first with the
// queried record last. Traversal is depth-bounded: exceeding the bound
// reports domain.ErrCorruptChain instead of looping forever.
func (s *Service) Chain(ctx context.Context, id domain.TxID) ([]domain.Transaction, error) {
	tx, err := s.store.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	chain := []domain.Transaction{*tx}
	current := tx
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= maxChainDepth {
			return nil, fmt.Errorf("%w: chain walk from %s", domain.ErrCorruptChain, id)
		}
		current, err = s.store.GetTransactionByID(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, fmt.Errorf("%w: dangling parent reference in chain of %s", domain.ErrCorruptChain, id)
		}
		chain = append(chain, *current)
	}

	// Reverse into root-to-leaf order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain, nil
}
