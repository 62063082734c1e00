package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_SendsQueryAndReturnsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tell me about my resume", req["query"])

		json.NewEncoder(w).Encode(map[string]string{"response": "Your resume looks solid."})
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL)
	got, err := backend.Query(context.Background(), "tell me about my resume")

	require.NoError(t, err)
	assert.Equal(t, "Your resume looks solid.", got)
}

func TestQuery_Non200MapsToBackendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL)
	_, err := backend.Query(context.Background(), "anything")

	assert.ErrorIs(t, err, ErrBackendStatus)
	assert.Contains(t, err.Error(), "500")
}

func TestUpload_SendsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "resume.pdf", header.Filename)

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 fake", string(content))

		json.NewEncoder(w).Encode(map[string]string{"message": "resume indexed"})
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL)
	got, err := backend.Upload(context.Background(), "resume.pdf", strings.NewReader("%PDF-1.4 fake"))

	require.NoError(t, err)
	assert.Equal(t, "resume indexed", got)
}

func TestUpload_Non200MapsToBackendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL)
	_, err := backend.Upload(context.Background(), "resume.pdf", strings.NewReader("x"))

	assert.ErrorIs(t, err, ErrBackendStatus)
}

func TestStatus_ReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/status", r.URL.Path)
		w.Write([]byte(`{"status":"ready","documents":1}`))
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL)
	got, err := backend.Status(context.Background())

	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ready","documents":1}`, string(got))
}

func TestInterviewQuestions_ReturnsGeneratedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/interview_questions", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "{}", string(body))

		json.NewEncoder(w).Encode(map[string]string{
			"response": "1. Why us? 2. Biggest weakness?",
		})
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL)
	got, err := backend.InterviewQuestions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1. Why us? 2. Biggest weakness?", got)
}

func TestInterviewQuestions_ErrorFieldMapsToReportedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL)
	_, err := backend.InterviewQuestions(context.Background())

	assert.ErrorIs(t, err, ErrBackendReported)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestInterviewQuestions_Non200MapsToBackendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no resume uploaded", http.StatusBadRequest)
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL)
	_, err := backend.InterviewQuestions(context.Background())

	assert.ErrorIs(t, err, ErrBackendStatus)
}

func TestQuery_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := NewHTTPBackend(srv.URL)
	_, err := backend.Query(ctx, "never arrives")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBackendStatus)
}
