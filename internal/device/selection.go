package device

// Reconcile returns the selection to use after a roster refresh. An empty
// roster clears the selection. A current id still present in the roster is
// kept, so the viewed device does not jump. Otherwise the first device in
// backend order is selected.
func Reconcile(current string, roster []Snapshot) string {
	if len(roster) == 0 {
		return ""
	}
	if current != "" {
		for _, s := range roster {
			if s.ID == current {
				return current
			}
		}
	}
	return roster[0].ID
}

// Tracker keeps the selected device across roster refreshes and user
// navigation. The zero value has no roster and no selection.
type Tracker struct {
	roster   []Snapshot
	selected string
}

// Update replaces the roster and re-applies Reconcile. It reports whether
// the selection changed.
func (t *Tracker) Update(roster []Snapshot) bool {
	prev := t.selected
	t.roster = roster
	t.selected = Reconcile(t.selected, roster)
	return t.selected != prev
}

// Roster returns the latest roster.
func (t *Tracker) Roster() []Snapshot {
	return t.roster
}

// Selected returns the selected id, or "" when nothing is selected.
func (t *Tracker) Selected() string {
	return t.selected
}

// Current returns the selected snapshot.
func (t *Tracker) Current() (Snapshot, bool) {
	if t.selected == "" {
		return Snapshot{}, false
	}
	return Find(t.roster, t.selected)
}

// Index returns the selected position in the roster, or -1.
func (t *Tracker) Index() int {
	for i, s := range t.roster {
		if s.ID == t.selected {
			return i
		}
	}
	return -1
}

// Select makes id the selection if it is in the roster.
func (t *Tracker) Select(id string) bool {
	if _, ok := Find(t.roster, id); !ok {
		return false
	}
	changed := t.selected != id
	t.selected = id
	return changed
}

// Next moves the selection down one device, stopping at the end.
func (t *Tracker) Next() bool {
	idx := t.Index()
	if idx < 0 || idx >= len(t.roster)-1 {
		return false
	}
	t.selected = t.roster[idx+1].ID
	return true
}

// Prev moves the selection up one device, stopping at the start.
func (t *Tracker) Prev() bool {
	idx := t.Index()
	if idx <= 0 {
		return false
	}
	t.selected = t.roster[idx-1].ID
	return true
}

// First selects the first device.
func (t *Tracker) First() bool {
	if len(t.roster) == 0 {
		return false
	}
	return t.Select(t.roster[0].ID)
}

// Last selects the last device.
func (t *Tracker) Last() bool {
	if len(t.roster) == 0 {
		return false
	}
	return t.Select(t.roster[len(t.roster)-1].ID)
}
