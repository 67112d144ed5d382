// Package healthstore identifies the module and its release version.
package healthstore

// Version is the release version reported by the CLI.
const Version = "0.2.0"
