package events

import "time"

const (
	EventDocumentIngested        = "DOCUMENT_INGESTED"
	EventDocumentIngestionFailed = "DOCUMENT_INGESTION_FAILED"
)

// NewDocumentIngested is emitted once per document after its ledger row
// flips to ingested.
func NewDocumentIngested(filename string, pages int, chunks int) Event {
	return BaseEvent{
		Type: EventDocumentIngested,
		Data: map[string]interface{}{
			"filename": filename,
			"pages":    pages,
			"chunks":   chunks,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIngestionFailed is emitted when a registered document fails
// extraction or embedding. The ledger row stays registered, not ingested.
func NewDocumentIngestionFailed(filename string, reason string) Event {
	return BaseEvent{
		Type: EventDocumentIngestionFailed,
		Data: map[string]interface{}{
			"filename": filename,
			"reason":   reason,
		},
		OccurredAt: time.Now(),
	}
}
