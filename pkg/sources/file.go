// pkg/sources/file.go
package sources

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/tabular"
)

// FileSource reads one tabular file (csv, tsv or xlsx).
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a file source.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger}
}

// Name returns the file's base name.
func (s *FileSource) Name() string {
	return filepath.Base(s.path)
}

// Fetch reads the file. The context is accepted for interface
// symmetry; file reads are synchronous and complete or fail at once.
func (s *FileSource) Fetch(_ context.Context) (*model.Dataset, error) {
	ds, err := tabular.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("loaded file source",
		zap.String("file", s.Name()),
		zap.Int("records", ds.Len()))
	return ds, nil
}
