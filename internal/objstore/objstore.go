// Package objstore abstracts the bucket that uploaded import files land
// in. The pipeline only fetches objects into scoped temporary files and,
// on delete-import, removes them best-effort.
package objstore

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// ObjectStore is the uploaded-file source for the import driver.
type ObjectStore interface {
	// FetchToFile copies the named object into the local file at path.
	FetchToFile(ctx context.Context, name, path string) error

	// Delete removes the named object. Deleting an absent object is not
	// an error.
	Delete(ctx context.Context, name string) error
}

// Config selects and parameterizes an object store backend.
type Config struct {
	Driver  string `yaml:"driver" mapstructure:"driver"`     // local | http | ftp
	Dir     string `yaml:"dir" mapstructure:"dir"`           // local: bucket root directory
	BaseURL string `yaml:"base_url" mapstructure:"base_url"` // http/ftp: bucket base URL
}

// Open constructs the configured backend.
func Open(cfg Config) (ObjectStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "local":
		return NewLocal(cfg.Dir)
	case "http":
		return NewHTTP(HTTPOptions{BaseURL: cfg.BaseURL}), nil
	case "ftp":
		return NewFTP(FTPOptions{BaseURL: cfg.BaseURL}), nil
	default:
		return nil, eris.Errorf("objstore: unknown driver %q", cfg.Driver)
	}
}
