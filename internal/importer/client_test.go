package importer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventsImporter/internal/models/domain"
	"eventsImporter/internal/models/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Import(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	titles := make(chan string, 1)
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ImportPath, r.URL.Path)
		var data domain.EventData
		_ = json.NewDecoder(r.Body).Decode(&data)
		titles <- data.EventTitle
		_ = json.NewEncoder(w).Encode(dto.ImportResponse{
			Success: true,
			Event:   &dto.ImportedEvent{ID: "42", Slug: "jazz-night"},
			Created: true,
		})
	}))
	defer up.Close()

	c := NewClient(discardLogger(), &http.Client{}, []string{down.URL, up.URL + "/"}, time.Second)

	ref, err := c.Import(context.Background(), domain.EventData{EventTitle: "Jazz Night"})

	require.NoError(t, err)
	assert.Equal(t, domain.ImportRef{ID: "42", Slug: "jazz-night", Created: true}, ref)
	assert.Equal(t, "Jazz Night", <-titles)
}

func TestClient_Import_AllFail(t *testing.T) {
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.ImportResponse{Success: false, Error: "title required"})
	}))
	defer rejecting.Close()

	c := NewClient(discardLogger(), &http.Client{}, []string{rejecting.URL}, time.Second)

	_, err := c.Import(context.Background(), domain.EventData{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "title required")
}

func TestClient_Import_NoOrigins(t *testing.T) {
	c := NewClient(discardLogger(), &http.Client{}, []string{" "}, time.Second)

	_, err := c.Import(context.Background(), domain.EventData{})

	assert.Error(t, err)
}
