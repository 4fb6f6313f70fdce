package bundle

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/vk/shipgrid/internal/ctxlog"
)

// upload PUTs the archive to a pre-signed URL.
func (b *Bundler) upload(ctx context.Context, archive, url string) error {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive '%s': %w", archive, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file stats for '%s': %w", archive, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/gzip")
	req.ContentLength = stat.Size()

	logger.Info("Uploading workflow bundle", "source", archive, "size", stat.Size())

	client := b.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bundle upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded workflow bundle", "status", resp.Status)
	return nil
}
