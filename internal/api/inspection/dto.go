package inspection

// IngestMessage is the queue payload published by the upload service. The
// field names are a wire contract shared with it and must not change.
type IngestMessage struct {
	ID       string `json:"id" validate:"required"`
	BucketID string `json:"bucketID" validate:"required"`
}

type ResultsQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

type WorkerStatsResponse struct {
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	InFlight  uint64 `json:"in_flight"`
}
