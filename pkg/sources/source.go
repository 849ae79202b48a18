// pkg/sources/source.go
package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/shafinislam2651/BCG-contacts-data-pipeline/pkg/model"
)

// Source fetches one contact dataset from somewhere: a file on disk,
// a mailing-list API, anything tabular.
type Source interface {
	// Name identifies the source for logging and change attribution.
	Name() string

	// Fetch loads the dataset.
	Fetch(ctx context.Context) (*model.Dataset, error)
}

// Factory creates sources.
type Factory struct {
	logger *zap.Logger
}

// NewFactory creates a source factory.
func NewFactory(logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{logger: logger}
}

// CreateFileSource creates a source for one tabular file.
func (f *Factory) CreateFileSource(path string) *FileSource {
	return NewFileSource(path, f.logger)
}

// CreateMailchimpSource creates a mailing-list API source.
func (f *Factory) CreateMailchimpSource(apiKey, listID string) (*MailchimpSource, error) {
	f.logger.Info("Creating mailing list source", zap.String("listID", listID))
	return NewMailchimpSource(apiKey, listID, f.logger)
}

// DiscoverFileSources lists the supported tabular files in a
// directory, sorted by name so fill passes run in a stable order.
func (f *Factory) DiscoverFileSources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".tsv", ".xlsx":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	out := make([]Source, 0, len(paths))
	for _, p := range paths {
		out = append(out, f.CreateFileSource(p))
	}

	f.logger.Info("discovered file sources",
		zap.String("dir", dir),
		zap.Int("count", len(out)))
	return out, nil
}
