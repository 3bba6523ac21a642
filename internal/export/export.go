// Package export writes the dead links of a finished crawl to a report file.
package export

import (
	"fmt"

	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

type Exporter interface {
	// Export writes the records grouped by source page to filename plus the
	// exporter's extension.
	Export(records []domain.DeadlinkRecord, filename string) error
}

// NewExporter returns the exporter for format, "csv" or "json".
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "csv":
		return NewCSVExporter(), nil
	case "json":
		return NewJsonExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
