package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPStore talks to a Vercel-Blob style service: authenticated PUT of the raw
// body to <base>/<key>, plain GET of the returned URL.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPStore(baseURL, token string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		token:   token,
		client:  client,
	}
}

type putResponse struct {
	URL string `json:"url"`
}

func (s *HTTPStore) Put(ctx context.Context, data []byte, ext, contentType string) (string, error) {
	uploadURL := s.baseURL + NewKey(ext)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", newTransferError("put", 0, "", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", newTransferError("put", 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", newTransferError("put", resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", newTransferError("put", resp.StatusCode, string(body), nil)
	}

	// Without a parseable url in the body, assume the object lives where we put it.
	var out putResponse
	if err := json.Unmarshal(body, &out); err != nil || strings.TrimSpace(out.URL) == "" {
		return uploadURL, nil
	}

	return out.URL, nil
}

func (s *HTTPStore) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newTransferError("get", 0, "", err)
	}

	// only hand our token to our own store
	if strings.HasPrefix(url, s.baseURL) {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, newTransferError("get", 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBody))
		return nil, newTransferError("get", resp.StatusCode, string(body), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransferError("get", resp.StatusCode, "", fmt.Errorf("read body: %w", err))
	}

	return data, nil
}
