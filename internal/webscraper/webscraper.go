// Package webscraper crawls a single site and reports its dead internal links.
package webscraper

import (
	"context"
	"fmt"
	"io"

	"github.com/rodaine/table"

	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

type WebScraper interface {
	StartHunting(ctx context.Context) error
	GetResults() []domain.DeadlinkRecord
	PrintResults(w io.Writer)
}

var _ WebScraper = (*StaticHunter)(nil)

func printResults(w io.Writer, records []domain.DeadlinkRecord) {
	pages := domain.GroupBySource(records)
	if len(pages) == 0 {
		fmt.Fprintln(w, "No dead links found")
		return
	}

	tbl := table.New("Page", "Counts", "Dead Links").WithWriter(w)
	for _, page := range pages {
		for i, deadLink := range page.DeadLinks {
			if i == 0 {
				tbl.AddRow(page.URL, page.DeadLinkCount, deadLink)
			} else {
				tbl.AddRow("", "", deadLink)
			}
		}
	}
	tbl.Print()
}
