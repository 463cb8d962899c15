package config

// Loader reads configuration into a target
type Loader interface {
	// Load fills target
	Load(target any) error

	// Watch invokes callback whenever the source changes
	Watch(callback func()) error
}
