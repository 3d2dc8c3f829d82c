package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bizpulse/bizpulse/core"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededStore(t *testing.T) *EmbeddedVectorStore {
	t.Helper()
	store, err := NewEmbeddedVectorStore(HashEmbedding(256))
	require.NoError(t, err)

	ctx := context.Background()
	reviews := []Review{
		{ID: "rev-1", BusinessID: "hernandez-restaurant", Text: "Amazing tacos and friendly staff at Hernandez Restaurant", Stars: "5", Date: "2024-03-01"},
		{ID: "rev-2", BusinessID: "hernandez-restaurant", Text: "Hernandez Restaurant had slow service but delicious food", Stars: "3", Date: "2024-04-12"},
		{ID: "rev-3", BusinessID: "blue-bottle", Text: "Great coffee and clean space", Stars: "4", Date: "2024-05-20"},
	}
	for _, r := range reviews {
		require.NoError(t, store.AddReview(ctx, r))
	}
	businesses := []Business{
		{ID: "hernandez-restaurant", Name: "Hernandez Restaurant", Categories: "Mexican, Restaurants", Stars: "4.5", City: "Austin"},
		{ID: "blue-bottle", Name: "Blue Bottle Coffee", Categories: "Coffee, Cafes", Stars: "4.0", City: "Oakland"},
	}
	for _, b := range businesses {
		require.NoError(t, store.AddBusiness(ctx, b))
	}
	return store
}

func TestEmbeddedVectorStore_Search(t *testing.T) {
	store := newSeededStore(t)

	records, err := store.Search(context.Background(), core.CollectionReviews, "Hernandez Restaurant reviews", 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	assert.Equal(t, core.CollectionReviews, records[0].Collection)
	assert.Contains(t, records[0].Text, "Hernandez")
	for _, r := range records {
		assert.NotEmpty(t, r.ID)
		assert.GreaterOrEqual(t, r.Score, float64(0))
	}
}

func TestEmbeddedVectorStore_Search_BusinessFilter(t *testing.T) {
	store := newSeededStore(t)

	records, err := store.Search(context.Background(), core.CollectionReviews, "food", 5,
		map[string]string{"business_id": "hernandez-restaurant"})
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, r := range records {
		assert.Equal(t, "hernandez-restaurant", r.Metadata["business_id"])
	}
}

func TestEmbeddedVectorStore_Search_KClampedToCount(t *testing.T) {
	store := newSeededStore(t)

	records, err := store.Search(context.Background(), core.CollectionBusinesses, "restaurant", 50, nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestEmbeddedVectorStore_Search_EmptyCollection(t *testing.T) {
	store, err := NewEmbeddedVectorStore(HashEmbedding(64))
	require.NoError(t, err)

	records, err := store.Search(context.Background(), core.CollectionReviews, "anything", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEmbeddedVectorStore_UnknownCollection(t *testing.T) {
	store, err := NewEmbeddedVectorStore(HashEmbedding(64))
	require.NoError(t, err)

	_, err = store.Search(context.Background(), "nope", "anything", 5, nil)
	assert.True(t, core.IsCode(err, core.CodeInvalidInput))
}

func TestEmbeddedVectorStore_SeedFromReader(t *testing.T) {
	store, err := NewEmbeddedVectorStore(HashEmbedding(64))
	require.NoError(t, err)

	seed := strings.Join([]string{
		`{"kind":"review","review":{"review_id":"rev-1","business_id":"biz-1","text":"great pizza","stars":"5","date":"2024-01-01"}}`,
		``,
		`{"kind":"business","business":{"business_id":"biz-1","name":"Pizza Place","categories":"Pizza","stars":"4.5","city":"Portland"}}`,
	}, "\n")

	added, err := store.SeedFromReader(context.Background(), strings.NewReader(seed))
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, store.Count(core.CollectionReviews))
	assert.Equal(t, 1, store.Count(core.CollectionBusinesses))
}

func TestEmbeddedVectorStore_SeedFromReader_Malformed(t *testing.T) {
	store, err := NewEmbeddedVectorStore(HashEmbedding(64))
	require.NoError(t, err)

	_, err = store.SeedFromReader(context.Background(), strings.NewReader(`{"kind":"review"}`))
	assert.True(t, core.IsCode(err, core.CodeMalformedResponse))

	_, err = store.SeedFromReader(context.Background(), strings.NewReader(`not json`))
	assert.True(t, core.IsCode(err, core.CodeMalformedResponse))
}

func TestHashEmbedding_Deterministic(t *testing.T) {
	embed := HashEmbedding(128)
	a, err := embed(context.Background(), "great tacos")
	require.NoError(t, err)
	b, err := embed(context.Background(), "great tacos")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	empty, err := embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, float32(1), empty[0])
}

func TestOpenAIEmbedding(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test-key"))
	embed := OpenAIEmbedding(&client, "")

	vec, err := embed(context.Background(), "great tacos")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, string(DefaultEmbeddingModel), gotModel)
}

func TestOpenAIEmbedding_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := openai.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test-key"), option.WithMaxRetries(0))
	embed := OpenAIEmbedding(&client, "text-embedding-3-small")

	_, err := embed(context.Background(), "great tacos")
	assert.True(t, core.IsCode(err, core.CodeServiceUnavailable))
}
