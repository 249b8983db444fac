package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientSubmit(t *testing.T) {
	var got Submission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/set-job", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"push-success","statusUrl":"/status/42"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL + "/")
	ack, err := client.Submit(context.Background(), testSubmission())
	require.NoError(t, err)

	assert.Equal(t, StatusPushSuccess, ack.Status)
	assert.Equal(t, "/status/42", ack.StatusURL)
	assert.Equal(t, testSubmission(), got)
}

func TestHTTPClientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/status/42", r.URL.Path)
		w.Write([]byte(`{"status":"pop-success","data":{"response":{"output":"hi\n","status":"0"}}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL)
	for _, route := range []string{"/status/42", "status/42"} {
		status, err := client.Status(context.Background(), route)
		require.NoError(t, err)
		assert.Equal(t, StatusPopSuccess, status.Status)
		require.NotNil(t, status.Data)
		assert.Equal(t, "hi\n", status.Data.Response.Output)
		assert.Equal(t, "0", status.Data.Response.Status)
	}
}

func TestHTTPClientDecodesErrorBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"status":"error","message":"upstream error: Bad Gateway"}`))
	}))
	defer srv.Close()

	ack, err := NewHTTPClient(srv.URL).Submit(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, "error", ack.Status)
	assert.Equal(t, "upstream error: Bad Gateway", ack.Message)
}

func TestHTTPClientRejectsNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).Status(context.Background(), "/status/1")
	assert.Error(t, err)
}

func TestHTTPClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url).Submit(context.Background(), testSubmission())
	assert.Error(t, err)
}

func TestHTTPClientDrivesJob(t *testing.T) {
	polls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/set-job", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"push-success","statusUrl":"/status/7"}`))
	})
	mux.HandleFunc("/api/status/7", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			w.Write([]byte(`{"status":"pending"}`))
			return
		}
		w.Write([]byte(`{"status":"pop-success","data":{"response":{"output":"42","status":"0"}}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := waitResult(t, Start(context.Background(), NewHTTPClient(srv.URL), testSubmission(), testOptions(nil)))
	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, "42", res.Output)
}

func TestLanguageFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".js", "javascript"},
		{"ts", "typescript"},
		{".PY", "python"},
		{".java", "java"},
		{".rs", "rust"},
		{".go", "plaintext"},
		{"", "plaintext"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, LanguageFromExtension(tt.ext))
		})
	}
}
