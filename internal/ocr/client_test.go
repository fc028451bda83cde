package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestPingUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)
	assert.Error(t, client.Ping(context.Background()))
}

func TestReadImage(t *testing.T) {
	expected := []Result{
		{Text: "HELLO", Confidence: 0.95, BBox: [][]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ocr", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "receipt.jpg", header.Filename)

		json.NewEncoder(w).Encode(expected)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	results, err := client.ReadImage(context.Background(), "receipt.jpg", []byte("fake image bytes"))
	require.NoError(t, err)
	assert.Equal(t, expected, results)
}

func TestReadImageEngineError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.ReadImage(context.Background(), "receipt.jpg", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestReadImageBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.ReadImage(context.Background(), "receipt.jpg", []byte("x"))
	assert.Error(t, err)
}
