// Package app contains the core application logic. It assembles the
// configuration layers, the registry and the icon module, and runs them
// either once (Build) or continuously with a watcher and dev server (Dev),
// decoupled from any specific entrypoint like a CLI.
package app
