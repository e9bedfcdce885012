// Package webhook decodes and validates transaction-stored notifications from
// the finance service.
//
// Validation is an ordered chain of rules evaluated fail-fast: the first
// violated rule produces a ValidationError naming the problem, and nothing is
// enqueued. A payload that passes every rule yields a WorkItem, the minimal
// slice of the notification the classification workflow needs.
//
// The pipeline is pure; it never touches the registry, queue, or network.
package webhook
