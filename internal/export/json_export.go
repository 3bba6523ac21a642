package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

type Record struct {
	Page      string   `json:"Page"`
	Counts    int      `json:"Counts"`
	DeadLinks []string `json:"Dead Links"`
}

type JsonExporter struct{}

func NewJsonExporter() Exporter {
	return &JsonExporter{}
}

func (e *JsonExporter) Export(records []domain.DeadlinkRecord, filename string) error {
	result := e.transformData(domain.GroupBySource(records))

	resultJson, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshalling data: %w", err)
	}

	if err := os.WriteFile(filename+".json", resultJson, 0o644); err != nil {
		return fmt.Errorf("error exporting data to JSON: %w", err)
	}
	return nil
}

func (e *JsonExporter) transformData(pages []*domain.Page) []Record {
	result := make([]Record, 0, len(pages))
	for _, page := range pages {
		result = append(result, Record{
			Page:      page.URL,
			Counts:    page.DeadLinkCount,
			DeadLinks: page.DeadLinks,
		})
	}
	return result
}
