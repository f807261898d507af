// Package cli provides the interactive iskr command-line client.
//
// It wires configuration, the local session database, the identity API
// gateway and the auth service, then runs a REPL on top of them. Typical
// flow: restore the stored session, start a background session watcher,
// and execute user commands until exit.
//
// Key features:
//   - Login / Register / Logout
//   - Password reset and email verification with codes from email links
//   - Profile edits (nickname, username)
//   - Form validation before anything reaches the server
//   - Optional Prometheus endpoint
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartSessionWatcher, and runREPL for details.
package cli
