// Package poll schedules recurring fetches inside a bubbletea program.
//
// Every subscription has a key, a generation and a per-issue sequence
// number. A result is applied only if its key still maps to the same
// generation and its sequence is the latest one issued; anything else is
// dropped without running a callback and without re-arming. This gives:
//
//   - last-issued-wins ordering within a subscription,
//   - no callbacks after Stop returns, and
//   - clean handover when a key is restarted with new parameters.
//
// Cadence is interval-after-settle: the next call is armed only once the
// current one has been applied, so a slow backend slows its own subscription
// down and nothing else. Errors go to onError and never end the schedule.
//
// Retained pairs with a subscription to keep the last good value on screen
// while later attempts fail.
package poll
