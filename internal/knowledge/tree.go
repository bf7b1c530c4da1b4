package knowledge

import (
	"fmt"

	"github.com/studyforge/backend/internal/models"
)

// OrderForest validates an AI-supplied node batch and returns it in insert
// order (parents before children). All references are within the batch via
// transient IDs. Any violation rejects the whole batch; a partially valid
// tree is never persisted.
func OrderForest(raw []models.RawNode) ([]models.RawNode, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty node batch: %w", models.ErrMalformedTree)
	}

	index := make(map[string]models.RawNode, len(raw))
	for _, n := range raw {
		if _, dup := index[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q: %w", n.ID, models.ErrMalformedTree)
		}
		index[n.ID] = n
	}

	for _, n := range raw {
		if n.Level < 0 || n.Level > 2 {
			return nil, fmt.Errorf("node %q: level %d outside range [0, 2]: %w", n.ID, n.Level, models.ErrMalformedTree)
		}

		if n.ParentID == nil {
			if n.Level != 0 {
				return nil, fmt.Errorf("node %q: level %d without a parent: %w", n.ID, n.Level, models.ErrMalformedTree)
			}
			continue
		}

		parent, ok := index[*n.ParentID]
		if !ok {
			return nil, fmt.Errorf("node %q: parent %q not in batch: %w", n.ID, *n.ParentID, models.ErrMalformedTree)
		}
		if n.Level != parent.Level+1 {
			return nil, fmt.Errorf("node %q: level %d under parent at level %d: %w", n.ID, n.Level, parent.Level, models.ErrMalformedTree)
		}
	}

	// Walk each parent chain. With the level rules above a cycle cannot
	// slip through, but a bad batch should fail here rather than at the
	// database.
	for _, n := range raw {
		seen := map[string]bool{n.ID: true}
		cur := n
		for cur.ParentID != nil {
			pid := *cur.ParentID
			if seen[pid] {
				return nil, fmt.Errorf("node %q: parent cycle through %q: %w", n.ID, pid, models.ErrMalformedTree)
			}
			seen[pid] = true
			cur = index[pid]
		}
	}

	ordered := make([]models.RawNode, 0, len(raw))
	for level := 0; level <= 2; level++ {
		for _, n := range raw {
			if n.Level == level {
				ordered = append(ordered, n)
			}
		}
	}
	return ordered, nil
}
