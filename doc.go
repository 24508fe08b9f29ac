// Package cqlmap is the write path of a CQL row mapper: it turns pending
// mutations of managed records into update statements and caches compiled
// statements by structure.
//
// Components:
//   - changeset: per-attribute pending mutations (kind + payload) and the
//     per-record Tracker.
//   - fragment: renders a change-set as an update fragment with either bind
//     markers (Prepared) or literals (Inline).
//   - keycodec: compound primary key <-> ordered component values, with the
//     partition/clustering split.
//   - Cache (this package): two-tier statement cache. The fixed tier holds the
//     canonical statements of each entity (insert, find/delete by key, ...)
//     and is unbounded. The dynamic tier is a bounded LRU keyed by
//     StructuralKey.
//
// Keys:
//
//	fixed:   (entity, operation)
//	dynamic: (operation, entity, attribute set, change signature, option shape)
//
// Values never take part in a key. Two updates that differ only in the
// values they bind share one compiled statement.
//
// Flow:
//
//	tr.AddToSet(tags, "a", "b")                   // record the mutation
//	frag, vals, _ := fragment.Render(cs, fragment.Prepared, tc)
//	st, _ := cache.Dynamic(ctx, key, cache.Prepare(text)) // compiled once per shape
//	exec(ctx, st, vals...)
package cqlmap
