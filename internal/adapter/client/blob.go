package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const uploadTimeout = 30 * time.Second

// BlobClient uploads rendered PDFs to an object-storage container through its
// HTTP interface (any S3/Azure-style endpoint that accepts signed PUTs).
type BlobClient struct {
	endpoint string // container base URL, e.g. https://acct.blob.example.net/analyses
	sasQuery string // pre-signed query string granting write access, may be empty
	http     *http.Client
}

func NewBlobClient(endpoint, sasQuery string) *BlobClient {
	return &BlobClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		sasQuery: strings.TrimPrefix(sasQuery, "?"),
		http:     &http.Client{Timeout: uploadTimeout},
	}
}

// UploadPDF stores data under path and returns the public URL of the blob.
func (c *BlobClient) UploadPDF(ctx context.Context, data []byte, path string) (string, error) {
	blobURL := c.endpoint + "/" + strings.TrimLeft(path, "/")
	putURL := blobURL
	if c.sasQuery != "" {
		putURL += "?" + c.sasQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, putURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("x-ms-blob-type", "BlockBlob")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("blob store returned status %d: %s", resp.StatusCode, body)
	}

	return blobURL, nil
}
