// Package cli implements the pvz command-line interface.
//
// Each Cobra command parses its flags into an options struct and hands it to
// a plain function (monitorCommand, snapshotCommand, Init, ...) that does the
// work, so the functions can be tested without going through Cobra.
//
// # Command Structure
//
//	pvz monitor            - Live dashboard for one env/tenant
//	pvz snapshot           - Print the roster and summary once (table, json, yaml)
//	pvz init               - Create .pvz.yaml
//	pvz config show|set    - Inspect or edit the config file
//	pvz doctor             - Check the config and every backend resource
//	pvz mock-api           - Serve a simulated backend
//	pvz version            - Build information
//	pvz completion <shell> - Shell completion scripts
//
// # Configuration
//
// loadConfig is shared by every command that talks to the backend. It reads
// .env from the working directory, then the config file (--config, or
// .pvz.yaml searched upward, or the global file), then PVZ_* variables, and
// finally the command's own flags. The result is validated before use.
//
// # Errors
//
// Commands return *errors.Error values carrying a suggestion. Execute prints
// them in the "✗ message / suggestion" layout and exits 1.
package cli
