// Package version holds the ticketbridge release version.
package version

// Version is the current ticketbridge version.
const Version = "0.1.0"
