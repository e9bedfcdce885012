// Package services defines shared helpers for coinsort's external
// integrations.
//
// It provides the structured error markers and Wrap helper that tag failures
// from the finance and classification services so callers can classify them
// without parsing message strings.
package services
