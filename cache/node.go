package cache

// hnode is an intrusive doubly linked list element owned by a hot shard.
// The list records insertion order only: head is the newest insertion,
// tail the oldest. Reads do not relink nodes — trimming walks the list
// from the tail, which is the deliberate iteration-order approximation
// of recency, not true LRU.
type hnode[V any] struct {
	key string
	ent *entry[V]

	prev *hnode[V]
	next *hnode[V]
}
