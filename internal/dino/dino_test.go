package dino

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dinosaurs", r.URL.Path)
		assert.Equal(t, "Tyrannosaurus", r.URL.Query().Get("Name"))
		w.Write([]byte(`[{"name":"Aardonyx","description":"An early sauropodomorph"},
			{"name":"Tyrannosaurus","description":"Large carnivorous dinosaur","diet":"carnivore","length":12.3}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	fact, err := c.Lookup(context.Background(), "Tyrannosaurus", "Large carnivorous dinosaur")
	require.NoError(t, err)
	assert.Equal(t, "Tyrannosaurus", fact.Name)
	assert.Equal(t, "carnivore", fact.Diet)
	assert.Equal(t, "12.3", fact.Length)
	assert.Equal(t, "Unknown period", fact.Period)
	assert.Equal(t, "Unknown weight", fact.Weight)
}

func TestLookupObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Stegosaurus"}`))
	}))
	defer srv.Close()

	fact, err := NewClient(srv.URL, time.Second).Lookup(context.Background(), "Stegosaurus", "")
	require.NoError(t, err)
	assert.Equal(t, "Stegosaurus", fact.Name)
	assert.Equal(t, "No description available", fact.Description)
}

func TestLookupFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Lookup(context.Background(), "T", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestLookupEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Lookup(context.Background(), "Nope", "")
	assert.Error(t, err)
}
