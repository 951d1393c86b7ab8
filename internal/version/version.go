// Package version holds the SDK identity reported to the ingestion API.
package version

const (
	// SDKName is the library name sent in message metadata and the User-Agent header.
	SDKName = "pulsekit-go"

	// SDKVersion is the current SDK version.
	SDKVersion = "1.0.0"
)
