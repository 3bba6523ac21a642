package webscraper

import "time"

const (
	MaxPages       = 10000               // maximum number of pages to visit
	MaxDepth       = 20                  // maximum depth of the links to follow
	MaxConcurrency = 10                  // number of pages fetched in parallel per batch
	RescanWindow   = 14 * 24 * time.Hour // pages scanned more recently are skipped
	PageTimeout    = 10 * time.Second
	LinkTimeout    = 5 * time.Second
	ProbeTimeout   = 10 * time.Second
	MaxBodyBytes   = 6 * 1024 * 1024
	UserAgent      = "dead-link-hunter/1.0"
)
