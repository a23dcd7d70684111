// Package dashboard implements the live fleet monitor TUI.
//
// The dashboard shows every device of one env/tenant as a card, a fleet
// summary strip with its drought badge, and drought and metrics detail for
// the selected device.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View):
//
//   - Model: roster, summary, streak and series views, selection, layout
//   - Update: keystrokes, window size, and poll results from the scheduler
//   - View: renders the current state to a string
//
// All fetching goes through a poll.Scheduler owned by the model. Results
// are applied inside Update, so the model takes no locks.
//
// # Subscriptions
//
//	roster                  - device list, every devices interval
//	summary                 - recent and drought summaries, joined
//	streak:<id>             - drought streak of the selected device
//	metrics:<id>:<bucket>   - metrics series of the selected device
//
// The per-device keys carry their parameters. Changing the selection or the
// bucket stops the old subscription before starting the new one, so a late
// response for the previous device never reaches the screen.
//
// # Failure Handling
//
// Every view keeps its last good value when a refresh fails and shows a
// stale marker instead. Only a roster that has never loaded replaces the
// dashboard with an error screen; it keeps retrying on its normal cadence.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	r           - Refresh everything now
//	b           - Cycle metrics bucket (hour/day/week)
//	j/k, ↑/↓    - Select device
//	Home/End    - Select first/last device
//	Enter       - Open device detail
//	Esc         - Back
//	?           - Toggle help overlay
package dashboard
