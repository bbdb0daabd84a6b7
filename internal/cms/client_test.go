package cms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{ProjectID: "proj", Dataset: "production", Token: "secret", BaseURL: srv.URL})
}

func TestQueryBindsParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2021-10-21/data/query/production", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, `*[_type == $type][0]`, r.URL.Query().Get("query"))
		assert.Equal(t, `"contentStrategy"`, r.URL.Query().Get("$type"))
		_, _ = io.WriteString(w, `{"ms": 3, "result": {"title": "Default"}}`)
	})

	var doc struct {
		Title string `json:"title"`
	}
	found, err := client.Query(context.Background(), `*[_type == $type][0]`, map[string]any{"type": "contentStrategy"}, &doc)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Default", doc.Title)
}

func TestQueryNullResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result": null}`)
	})

	var doc map[string]any
	found, err := client.Query(context.Background(), `*[_type == "x"][0]`, nil, &doc)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, doc)
}

func TestQueryAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"description": "expected '}' following object body"}}`)
	})

	_, err := client.Query(context.Background(), `*[`, nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "following object body")
}

func TestSaveUsesCreateOrReplace(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2021-10-21/data/mutate/production", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("returnIds"))

		var body struct {
			Mutations []map[string]map[string]any `json:"mutations"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if assert.Len(t, body.Mutations, 1) {
			assert.Equal(t, "doc-1", body.Mutations[0]["createOrReplace"]["_id"])
		}

		_, _ = io.WriteString(w, `{"transactionId": "tx", "results": [{"id": "doc-1", "operation": "create"}]}`)
	})

	result, err := client.Save(context.Background(), map[string]any{"_id": "doc-1", "_type": "socialContent"})
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Equal(t, "tx", result.TransactionID)
}

func TestSaveRejectedOperation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"transactionId": "tx", "results": [{"id": "doc-1", "operation": "delete"}]}`)
	})

	_, err := client.Save(context.Background(), map[string]any{"_id": "doc-1"})
	assert.ErrorIs(t, err, ErrMutationRejected)
}

func TestMutateRequiresMutations(t *testing.T) {
	client := NewClient(Config{ProjectID: "proj", Dataset: "production"})
	_, err := client.Mutate(context.Background())
	assert.Error(t, err)
}

func TestUploadImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2021-10-21/assets/images/production", r.URL.Path)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		assert.Equal(t, "excavator.png", r.URL.Query().Get("filename"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
		_, _ = io.WriteString(w, `{"document": {"_id": "image-abc-png", "url": "https://cdn.sanity.io/images/proj/production/abc.png"}}`)
	})

	asset, err := client.UploadImage(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png", "excavator.png")
	require.NoError(t, err)
	assert.Equal(t, "image-abc-png", asset.ID)
	assert.Contains(t, asset.URL, "abc.png")

	_, err = client.UploadImage(context.Background(), nil, "image/png", "empty.png")
	assert.Error(t, err)
}

func TestEquipmentByIDsKeepsRequestOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `["eq-2","eq-1","eq-missing"]`, r.URL.Query().Get("$ids"))
		_, _ = io.WriteString(w, `{"result": [
			{"_id": "eq-1", "name": "Skid Steer", "availability": {"status": "available"}},
			{"_id": "eq-2", "name": "Mini Excavator", "availability": {"status": "available"}}
		]}`)
	})

	list, err := client.EquipmentByIDs(context.Background(), []string{"eq-2", "eq-1", "eq-missing"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "eq-2", list[0].ID)
	assert.Equal(t, "eq-1", list[1].ID)
}

func TestCategoriesAreDeduplicated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result": [
			{"categories": ["Lawn & Garden", "Excavation"]},
			{"categories": ["Excavation", ""]},
			{"categories": null}
		]}`)
	})

	cats, err := client.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Excavation", "Lawn & Garden"}, cats)
}

func TestCountAvailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"Excavation"`, r.URL.Query().Get("$category"))
		_, _ = io.WriteString(w, `{"result": 7}`)
	})

	n, err := client.CountAvailable(context.Background(), "Excavation")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
