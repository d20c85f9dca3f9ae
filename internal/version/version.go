// ABOUTME: Version constants for the demo player
// ABOUTME: Identifies the product in logs and diagnostics
package version

const (
	Version      = "0.1.0"
	Product      = "PCM Bridge Player"
	Manufacturer = "pcmbridge"
)
