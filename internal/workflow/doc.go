// Package workflow orchestrates the classification pipeline for one job.
//
// A processor run fetches the live category taxonomy, asks the classifier to
// place the transaction, records the exchange on the job, and commits the
// category upstream when one matched. Any error aborts the run and leaves the
// job in its current state; there are no retries at this layer.
package workflow
