// ABOUTME: Build identity for the visualizer
// ABOUTME: Reported by the version command and embedded in logs
package version

const (
	Version      = "0.3.0"
	Product      = "Resonate Visualizer"
	Manufacturer = "Resonate Protocol"
)

// String returns "<product> <version>"
func String() string {
	return Product + " " + Version
}
