package settings

import "path/filepath"

// Settings file locations relative to the platform configuration directory.
const (
	appDir         = "DynDNSClient"
	dataFileName   = "Settings.xml"
	schemaFileName = "Settings.xsd"
)

// Paths locates the settings data file and its schema.
type Paths struct {
	Data string
	// Schema may be empty, in which case validation is skipped. DefaultPaths
	// always sets it, so a missing schema file fails Load; clear the field to
	// load without one.
	Schema string
}

// DefaultPaths returns the fixed platform locations of the settings files.
func DefaultPaths() Paths {
	base := filepath.Join(configBaseDir(), appDir)
	return Paths{
		Data:   filepath.Join(base, "Data", dataFileName),
		Schema: filepath.Join(base, "Schema", schemaFileName),
	}
}
