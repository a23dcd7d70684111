package dashboard

import tea "github.com/charmbracelet/bubbletea"

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeyCycleBucket = "b"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyExpand      = "enter"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"
)

// HandleKeyMsg processes keyboard input. It returns true if the key was
// handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// Help toggle takes priority
	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	if m.viewMode == ViewDetail && key == KeyCollapse {
		m.viewMode = ViewList
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		m.sched.StopAll()
		return true, tea.Quit

	case KeyRefresh:
		return true, m.sched.RefreshAll()

	case KeyCycleBucket:
		m.bucket = m.bucket.Next()
		m.syncDevice()
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		if m.tracker.Prev() {
			m.syncDevice()
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		if m.tracker.Next() {
			m.syncDevice()
		}
		return true, nil

	case KeySelectFirst:
		if m.tracker.First() {
			m.syncDevice()
		}
		return true, nil

	case KeySelectLast:
		if m.tracker.Last() {
			m.syncDevice()
		}
		return true, nil

	case KeyExpand:
		if m.viewMode == ViewList && m.tracker.Selected() != "" {
			m.viewMode = ViewDetail
			m.detailView.GotoTop()
		}
		return true, nil
	}

	return false, nil
}
