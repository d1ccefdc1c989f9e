package history

// Navigator is the Up/Down recall cursor over a Store. Its index stays in
// [0, store.Len()], where Len means no entry is being recalled.
type Navigator struct {
	store *Store
	index int
}

// Navigator returns a recall cursor positioned past the newest entry.
func (s *Store) Navigator() *Navigator {
	return &Navigator{store: s, index: s.Len()}
}

// Reset moves the cursor past the newest entry. Call it at every new prompt.
func (n *Navigator) Reset() {
	n.index = n.store.Len()
}

// Index returns the current cursor position.
func (n *Navigator) Index() int {
	return n.index
}

// Recalling reports whether the cursor points at an entry.
func (n *Navigator) Recalling() bool {
	return n.index < n.store.Len()
}

// Up moves toward older entries and returns the entry to show. It reports
// false when already at the oldest entry or the history is empty.
func (n *Navigator) Up() (string, bool) {
	if n.index > n.store.Len() {
		n.index = n.store.Len()
	}
	if n.index == 0 {
		return "", false
	}
	n.index--
	return n.store.Entry(n.index), true
}

// Down moves toward newer entries and returns the buffer to show. Stepping
// past the newest entry yields an empty buffer. It reports false when no
// entry is being recalled.
func (n *Navigator) Down() (string, bool) {
	if n.index >= n.store.Len() {
		n.index = n.store.Len()
		return "", false
	}
	n.index++
	if n.index == n.store.Len() {
		return "", true
	}
	return n.store.Entry(n.index), true
}
