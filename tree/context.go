package tree

// ContextParent is the member that quick-add actions attach new members to.
// It lives only on the client.
type ContextParent struct {
	current *Entry
}

// Select points at id if it is present in entries.
func (c *ContextParent) Select(entries []Entry, id string) bool {
	e, ok := Find(entries, id)
	if !ok {
		return false
	}
	c.current = &e
	return true
}

func (c *ContextParent) Current() (Entry, bool) {
	if c.current == nil {
		return Entry{}, false
	}
	return *c.current, true
}

// ID returns the selected id or "".
func (c *ContextParent) ID() string {
	if c.current == nil {
		return ""
	}
	return c.current.ID
}

func (c *ContextParent) Clear() {
	c.current = nil
}

// Restore reinstates an entry selected earlier, for example by a previous
// process. It is unverified until the next Revalidate.
func (c *ContextParent) Restore(e Entry) {
	if e.ID == "" {
		c.current = nil
		return
	}
	c.current = &e
}

// Revalidate must be called after every reload with the freshly flattened
// list. The pointer is dropped when its member is gone and refreshed
// otherwise. It reports whether a selection was dropped.
func (c *ContextParent) Revalidate(entries []Entry) bool {
	if c.current == nil {
		return false
	}
	e, ok := Find(entries, c.current.ID)
	if !ok {
		c.current = nil
		return true
	}
	c.current = &e
	return false
}
