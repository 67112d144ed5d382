// Package types defines the record model, filters, log entry types, and
// standard errors for the healthstore record engine.
package types
