package export

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

// DeadLinkRow is one report line. Page and Counts are only set on the first
// dead link of each page.
type DeadLinkRow struct {
	Page      string `csv:"Page,omitempty"`
	Counts    string `csv:"Counts,omitempty"`
	DeadLinks string `csv:"Dead Links"`
}

type CSVExporter struct{}

func NewCSVExporter() Exporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Export(records []domain.DeadlinkRecord, filename string) error {
	file, err := os.Create(filename + ".csv")
	if err != nil {
		return fmt.Errorf("error creating file %s: %w", filename, err)
	}
	defer file.Close()

	rows := e.transformData(domain.GroupBySource(records))
	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("error exporting data to CSV: %w", err)
	}
	return nil
}

func (e *CSVExporter) transformData(pages []*domain.Page) []DeadLinkRow {
	rows := []DeadLinkRow{}
	for _, page := range pages {
		for i, deadLink := range page.DeadLinks {
			if i == 0 {
				rows = append(rows, DeadLinkRow{Page: page.URL, Counts: strconv.Itoa(page.DeadLinkCount), DeadLinks: deadLink})
			} else {
				rows = append(rows, DeadLinkRow{DeadLinks: deadLink})
			}
		}
	}
	return rows
}
