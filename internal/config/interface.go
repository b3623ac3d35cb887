package config

import "context"

// Loader reads a configuration file and overlays the settings it contains
// onto base. Settings absent from the file keep their base values.
type Loader interface {
	Load(ctx context.Context, path string, base *Model) (*Model, error)
}
