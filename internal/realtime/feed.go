package realtime

import (
	"context"
	"encoding/json"
	"errors"
)

// Collections served by the feed. Every subscription delivers the complete
// document set for its collection, never deltas.
const (
	CollectionUsers            = "users"
	CollectionMaterials        = "materials"
	CollectionMaterialRequests = "material_requests"
	CollectionPayrollRecords   = "payroll_records"
)

var ErrDocNotFound = errors.New("realtime: document not found")

// Snapshot is the full authoritative document set of one collection at a
// point in time, keyed by document id.
type Snapshot map[string]json.RawMessage

// Clone returns an independent copy so subscribers can hold on to a
// snapshot without racing later writes.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

type SnapshotFunc func(Snapshot)

type ErrorFunc func(error)

// Unsubscribe revokes a single subscription. Safe to call more than once.
type Unsubscribe func()

// Feed is the realtime store primitive the reconciliation core runs
// against: full-snapshot subscriptions plus fire-and-forget writes that
// converge by the same subscription delivering post-write state back.
type Feed interface {
	Subscribe(collection string, onSnapshot SnapshotFunc, onError ErrorFunc) Unsubscribe
	Set(ctx context.Context, collection, docID string, value interface{}) error
	Update(ctx context.Context, collection, docID string, partial map[string]interface{}) error
	Delete(ctx context.Context, collection, docID string) error
}
