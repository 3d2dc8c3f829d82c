package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bizpulse/bizpulse/core"
)

// Endpoint addresses one remotely hosted vector collection. The review and
// business collections are independently addressable deployments, so each
// gets its own host/port pair.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) baseURL() string { return fmt.Sprintf("http://%s:%d", e.Host, e.Port) }

// RemoteVectorStore is a VectorSearcher talking to remotely hosted vector
// collections over HTTP JSON.
type RemoteVectorStore struct {
	client    *http.Client
	endpoints map[string]Endpoint
}

// NewRemoteVectorStore maps collection names to their endpoints. Per-call
// deadlines come from the caller's context, so the underlying http.Client
// carries no timeout of its own.
func NewRemoteVectorStore(endpoints map[string]Endpoint) *RemoteVectorStore {
	return &RemoteVectorStore{
		client:    &http.Client{},
		endpoints: endpoints,
	}
}

type remoteQueryRequest struct {
	Query string            `json:"query"`
	K     int               `json:"k"`
	Where map[string]string `json:"where,omitempty"`
}

type remoteQueryResponse struct {
	Results []struct {
		ID       string            `json:"id"`
		Text     string            `json:"text"`
		Score    float64           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"results"`
}

// Search implements VectorSearcher.
func (s *RemoteVectorStore) Search(ctx context.Context, collection, query string, k int, where map[string]string) ([]core.SearchRecord, error) {
	endpoint, ok := s.endpoints[collection]
	if !ok {
		return nil, core.NewToolError("vector", core.CodeInvalidInput, fmt.Sprintf("no endpoint configured for collection %q", collection))
	}

	reqBody, err := json.Marshal(remoteQueryRequest{Query: query, K: k, Where: where})
	if err != nil {
		return nil, core.WrapToolError("vector", core.CodeInvalidInput, "failed to marshal query", err)
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s/query", endpoint.baseURL(), collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, core.WrapToolError("vector", core.CodeInvalidInput, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, core.WrapToolError("vector", core.CodeTimeout, "collection query timed out", err)
		}
		return nil, core.WrapToolError("vector", core.CodeServiceUnavailable, "collection unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		code := core.CodeServiceUnavailable
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			code = core.CodeMalformedResponse
		}
		return nil, core.NewToolError("vector", code,
			fmt.Sprintf("collection returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	var payload remoteQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, core.WrapToolError("vector", core.CodeMalformedResponse, "failed to decode query response", err)
	}

	records := make([]core.SearchRecord, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.ID == "" {
			return nil, core.NewToolError("vector", core.CodeMalformedResponse, "query response contains record without id")
		}
		records = append(records, core.SearchRecord{
			ID:         r.ID,
			Collection: collection,
			Text:       r.Text,
			Score:      r.Score,
			Metadata:   r.Metadata,
		})
	}
	return records, nil
}
