// Command coinsort is the CLI companion to coinsortd. It inspects the
// daemon's status and job list over the HTTP API and manages configuration
// files.
package main
