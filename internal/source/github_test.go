package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHub_Fetch(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"number": 1, "title": "kms servers", "body": "kms: kms.abc.com:1688"}`))
	}))
	defer srv.Close()

	g := NewGitHub(srv.URL, "secret-token", 5*time.Second)
	body, err := g.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kms: kms.abc.com:1688", body)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestGitHub_Fetch_NoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"body": "text"}`))
	}))
	defer srv.Close()

	g := NewGitHub(srv.URL, "", 5*time.Second)
	body, err := g.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "text", body)
}

func TestGitHub_Fetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGitHub(srv.URL, "", 5*time.Second)
	_, err := g.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGitHub_Fetch_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"body": "recovered"}`))
	}))
	defer srv.Close()

	g := NewGitHub(srv.URL, "", 5*time.Second)
	body, err := g.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
	assert.Equal(t, 3, calls)
}
