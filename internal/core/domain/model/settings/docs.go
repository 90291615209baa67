// Package settings holds the administrative configuration of the back office:
// default commission amounts and per-wilaya delivery delays.
package settings
