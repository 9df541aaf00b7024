package ports

import (
	"context"

	"countglm/domain/sample"
)

// SampleReader delivers the in-memory record sequence the pipeline
// consumes. Where the records come from (file, query, another library)
// is the adapter's business, not the core's.
type SampleReader interface {
	ReadSample(ctx context.Context) ([]sample.Record, error)
}
