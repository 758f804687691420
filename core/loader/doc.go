// Package loader registers features and mounts their routes.
//
// Each feature implements the Feature interface:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// Manager keeps features in registration order and LoadAll mounts the
// enabled ones.
package loader
