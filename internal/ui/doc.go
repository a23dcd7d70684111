// Package ui provides terminal output components shared by pvz commands.
//
// # Components Overview
//
//	Spinner       - Animated status line for one-shot fetches (snapshot)
//	NewTeaSpinner - Bubble Tea spinner for the dashboard's loading states
//	Sparkline     - Single-row block graph for metrics series
//	Tables        - Device roster table and a plain bubbles table
//	Header        - Branded title block
//
// # Color Scheme
//
// Colors are hex values rendered through Lip Gloss, which downsamples them
// to whatever the terminal supports:
//
//	ColorSuccess (green)  - Online devices, successful fetches, healthy humidity
//	ColorError   (red)    - Failures, humidity at or below the drought threshold
//	ColorWarning (amber)  - Stale data, drought warnings
//	ColorInfo    (cyan)   - Informational values
//	ColorMuted   (gray)   - Offline devices, timing info
//
// SetColorMode applies the ui.color setting (auto, always, never).
package ui
