package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// HTTP is the shared client for the external model services
type HTTP struct{ c *http.Client }

// NewHTTP creates a client whose requests give up after timeout
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTP{c: &http.Client{Timeout: timeout}}
}

// postFile uploads path as multipart field "file" and decodes the JSON reply into out
func (h *HTTP) postFile(ctx context.Context, endpoint, path string, out any) error {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	go func() {
		fw, err := w.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		fd, err := os.Open(path)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		defer fd.Close()

		if _, err = io.Copy(fw, fd); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(w.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
