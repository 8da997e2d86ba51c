package hpack

// dynamicTable is the FIFO header table described by RFC 7541 §2.3.2: new
// entries are prepended (index 1 is always the newest), and eviction removes
// from the tail until the table fits under maxSize.
//
// Grounded on original_source/include/protocols/h2/hpack.hpp's
// `dynamic_header_map` (a std::deque<header>, newest at the front); Go's
// slice plays the same role with index 0 as the newest entry.
type dynamicTable struct {
	entries []headerField
	size    int // sum of entrySize(e) for all entries
	maxSize int
}

// entrySize is RFC 7541 §4.1's accounting rule: 32 bytes of overhead per
// entry on top of the literal octet lengths, so that a table "holds" roughly
// as many entries as its size suggests even though the octets themselves are
// smaller.
func entrySize(h headerField) int {
	return len(h.Name) + len(h.Value) + 32
}

func newDynamicTable(maxSize int) *dynamicTable {
	return &dynamicTable{maxSize: maxSize}
}

// insert prepends h and evicts from the tail until within maxSize. An entry
// larger than maxSize by itself empties the table entirely (RFC 7541 §4.4).
func (t *dynamicTable) insert(h headerField) {
	t.entries = append([]headerField{h}, t.entries...)
	t.size += entrySize(h)
	t.evict()
}

func (t *dynamicTable) evict() {
	for t.size > t.maxSize && len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1]
		t.entries = t.entries[:len(t.entries)-1]
		t.size -= entrySize(last)
	}
}

// setMaxSize applies a dynamic table size update (RFC 7541 §6.3), evicting
// immediately if the new size is smaller than the current occupancy.
func (t *dynamicTable) setMaxSize(n int) {
	t.maxSize = n
	t.evict()
}

// get returns the entry at dynamic index i (1-based, 1 = newest), or false
// if i is out of range.
func (t *dynamicTable) get(i int) (headerField, bool) {
	idx := i - 1
	if idx < 0 || idx >= len(t.entries) {
		return headerField{}, false
	}
	return t.entries[idx], true
}
