package plugin

// Config controls the behaviour of the plugin manager.
type Config struct {
	// Enabled specifies if the plugin subsystem should be initialised. When
	// false, no registered plugin will be enabled.
	Enabled bool
	// DataDirectory is the root under which every plugin gets its own data
	// folder. Defaults to `plugins`.
	DataDirectory string
}
