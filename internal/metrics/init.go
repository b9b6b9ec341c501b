package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	modes := []string{"info", "url", "filename", "extractors", "useragent"}
	for _, mode := range modes {
		ExtractionsTotal.WithLabelValues(mode, "success")
		ExtractionsTotal.WithLabelValues(mode, "error")
		ExtractionDuration.WithLabelValues(mode)
	}

	kinds := []string{"raw", "audio", "convert", "remux", "rtmp", "m3u8"}
	for _, kind := range kinds {
		StreamsTotal.WithLabelValues(kind, "success")
		StreamsTotal.WithLabelValues(kind, "error")
		StreamBytesTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"written", "skipped"} {
		ArchiveEntriesTotal.WithLabelValues(status)
	}
	for _, status := range []string{"success", "error"} {
		ArchivesTotal.WithLabelValues(status)
		HistoryWritesTotal.WithLabelValues(status)
	}
}
