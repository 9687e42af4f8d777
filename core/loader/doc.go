// Package loader provides the feature loading system of the read API.
//
// Each feature implements the Feature interface, which reports whether it is enabled and
// registers its routes:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager keeps features in registration order and loads the enabled ones.
package loader
