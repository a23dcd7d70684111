package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Fetch succeeded
	SymbolFail     = "✗" // Fetch failed
	SymbolPending  = "○" // Not yet loaded
	SymbolProgress = "◐" // Loading
	SymbolComplete = "●" // Online device
	SymbolOffline  = "◌" // Offline or silent device
	SymbolWarning  = "⚠" // Stale data or drought warning
	SymbolSelected = "▸" // Selected row
)
