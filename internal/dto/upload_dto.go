package dto

// UploadResponse reports the triggered ingestion scan. Files lists the
// names newly ingested by this scan; already-done files are omitted.
type UploadResponse struct {
	Filename string        `json:"filename"`
	Ingested bool          `json:"ingested"`
	Details  IngestSummary `json:"details"`
}

type IngestSummary struct {
	Files  []string `json:"files"`
	Chunks int      `json:"chunks"`
}
