package test

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/polkiloo/atelier/internal/domain/model"
)

// RandomSession returns an anonymous shopper with a fresh cart session.
func RandomSession() model.Identity {
	return model.Identity{SessionID: uuid.NewString()}
}

// RandomHolder returns a signed-in shopper whose holder id has the given prefix.
func RandomHolder(prefix string) model.Identity {
	return model.Identity{HolderID: prefix + "-" + uuid.NewString()[:8], SessionID: uuid.NewString()}
}

// RandomItemIDs returns n distinct positive item ids below limit. limit must exceed n.
func RandomItemIDs(n int, limit int64) []int64 {
	seen := make(map[int64]struct{}, n)
	ids := make([]int64, 0, n)
	for len(ids) < n {
		id := rand.Int64N(limit-1) + 1
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
