package domain

import "time"

// DeadlinkRecord is one occurrence of a dead link on a source page.
type DeadlinkRecord struct {
	Source       string
	Deadlink     string
	DiscoveredAt time.Time
}

// HistoryRecord tracks when a URL was last fetched.
type HistoryRecord struct {
	URL         string
	LastScanned time.Time
}

// Page groups the dead links found on a single source page.
type Page struct {
	URL           string
	DeadLinkCount int
	DeadLinks     []string
}

// GroupBySource folds records into one Page per source, in order of first
// appearance. Repeated occurrences of a dead link are kept.
func GroupBySource(records []DeadlinkRecord) []*Page {
	var pages []*Page
	index := make(map[string]*Page)
	for _, r := range records {
		page, ok := index[r.Source]
		if !ok {
			page = &Page{URL: r.Source, DeadLinks: []string{}}
			index[r.Source] = page
			pages = append(pages, page)
		}
		page.DeadLinkCount++
		page.DeadLinks = append(page.DeadLinks, r.Deadlink)
	}
	return pages
}
