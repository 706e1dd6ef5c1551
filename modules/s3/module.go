// Package s3 uploads files to pre-signed object storage URLs.
package s3

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/specialistvlad/burstflow/internal/ctxlog"
	"github.com/specialistvlad/burstflow/internal/registry"
	"github.com/specialistvlad/burstflow/internal/task"
	"github.com/specialistvlad/burstflow/modules/http_client"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of the s3_upload task.
type Input struct {
	SourcePath  string `cty:"source_path"`
	UploadURL   string `cty:"upload_url"`
	ContentType string `cty:"content_type"`
	// Client names the http_client resource the upload goes through.
	Client string `cty:"client"`
}

// Output is the result of the s3_upload task.
type Output struct {
	Status string
	Size   int64
}

// onRunUpload uploads a file to a pre-signed URL.
func onRunUpload(ctx context.Context, tc task.Context) (any, error) {
	input := Input{Client: "http_client"}
	if err := tc.DecodeArguments(&input); err != nil {
		return nil, err
	}
	if input.SourcePath == "" || input.UploadURL == "" {
		return nil, fmt.Errorf("s3_upload: source_path and upload_url are required")
	}
	client, err := http_client.Client(tc, input.Client)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(input.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file '%s': %w", input.SourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats for '%s': %w", input.SourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, input.UploadURL, file)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 upload request: %w", err)
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(input.SourcePath))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file to S3", "source", input.SourcePath, "size", stat.Size(), "contentType", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute S3 upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("S3 upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded file", "status", resp.Status)
	return &Output{Status: resp.Status, Size: stat.Size()}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("s3_upload", onRunUpload)
}
