package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizpulse/bizpulse/core"
)

func postTool(t *testing.T, ts *httptest.Server, tool, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/tools/"+tool, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func TestToolSearch_EquivalentInputForms(t *testing.T) {
	srv := NewServer(":0", testSystem(t), nil)
	ts := httptest.NewServer(srv.Router)
	defer ts.Close()

	// A plain string, a structured object and its serialized form must
	// produce the same records.
	bodies := []string{
		`"tacos at Hernandez"`,
		`{"query": "tacos at Hernandez", "collection": "yelp_reviews"}`,
		`"{\"query\": \"tacos at Hernandez\", \"collection\": \"yelp_reviews\"}"`,
	}

	var first []json.RawMessage
	for i, body := range bodies {
		resp := postTool(t, ts, "search", body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "body %q", body)

		var out struct {
			Results []json.RawMessage `json:"results"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		resp.Body.Close()
		require.NotEmpty(t, out.Results, "body %q", body)

		if i == 0 {
			first = out.Results
		} else {
			assert.Equal(t, len(first), len(out.Results), "body %q", body)
		}
	}
}

func TestToolSentiment(t *testing.T) {
	srv := NewServer(":0", testSystem(t), nil)
	ts := httptest.NewServer(srv.Router)
	defer ts.Close()

	resp := postTool(t, ts, "sentiment", `{"texts": ["great food", "terrible service"]}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Scores []core.SentimentScore `json:"scores"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Scores, 2)
	assert.Equal(t, core.SentimentPositive, out.Scores[0].Label)
	assert.Equal(t, core.SentimentNegative, out.Scores[1].Label)
}

func TestToolComplete(t *testing.T) {
	srv := NewServer(":0", testSystem(t), nil)
	ts := httptest.NewServer(srv.Router)
	defer ts.Close()

	resp := postTool(t, ts, "complete", `"Summarize the reviews"`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out["text"])
}

func TestTool_InvalidInput(t *testing.T) {
	srv := NewServer(":0", testSystem(t), nil)
	ts := httptest.NewServer(srv.Router)
	defer ts.Close()

	// A map without a query cannot be normalized.
	resp := postTool(t, ts, "search", `{"k": 3}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postTool(t, ts, "sentiment", `{"wrong": true}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
