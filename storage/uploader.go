package storage

import (
	"context"
	"io"
)

const CSVContentType = "text/csv; charset=utf-8"

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location,omitempty"`
	ETag     string `json:"etag,omitempty"`
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ExportKey is the object key of a draw run's CSV export.
func ExportKey(runID string) string {
	return "draws/" + runID + ".csv"
}
