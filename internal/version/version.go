// ABOUTME: Build-time version identity reported in the handshake and startup log
package version

const (
	Version      = "0.1.0"
	Product      = "SyncPlay Go Client"
	Manufacturer = "go-syncplay"
)
