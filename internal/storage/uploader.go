package storage

import (
	"context"
	"fmt"
)

// Uploader uploads files through fresh one-time targets.
type Uploader struct {
	store Store
}

func NewUploader(store Store) *Uploader {
	return &Uploader{store: store}
}

// StartUpload uploads files in order and returns one response per file.
// Each file gets its own target. It stops at the first failure; files
// uploaded before it are not removed.
func (u *Uploader) StartUpload(ctx context.Context, files []File) ([]UploadResponse, error) {
	responses := make([]UploadResponse, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return responses, err
		}
		target, err := u.store.GenerateUploadURL(ctx)
		if err != nil {
			return responses, fmt.Errorf("generate upload url: %w", err)
		}
		resp, err := u.store.Put(ctx, target, f)
		if err != nil {
			return responses, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
