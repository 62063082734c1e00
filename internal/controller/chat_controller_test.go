package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ai-helper-be/internal/pkg/logger"
	"resume-ai-helper-be/internal/pkg/serverutils"
	"resume-ai-helper-be/internal/repository/implementation"
	"resume-ai-helper-be/internal/repository/memory"
	"resume-ai-helper-be/internal/service"
	"resume-ai-helper-be/pkg/assistant"
)

func newTestApp(t *testing.T, backendURL string) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	log := logger.NewIsolatedLogger(filepath.Join(dir, "test.log"))
	store, err := implementation.NewFileSessionStore(dir, log)
	require.NoError(t, err)

	svc := service.NewChatService(
		store,
		assistant.NewHTTPBackend(backendURL),
		memory.NewStatusCache(time.Minute),
		nil,
		nil,
		log,
	)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewChatController(svc).RegisterRoutes(api)
	return app
}

// newFakeBackendServer serves the inference endpoints the chat flows hit.
func newFakeBackendServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": "A canned answer."})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "stored"})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ready"}`))
	})
	mux.HandleFunc("/interview_questions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": "1. One 2. Two 3. Three"})
	})
	return httptest.NewServer(mux)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, res *http.Response) envelope {
	t.Helper()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestGetState_ReturnsEmptyInitialState(t *testing.T) {
	backend := newFakeBackendServer()
	defer backend.Close()
	app := newTestApp(t, backend.URL)

	req := httptest.NewRequest("GET", "/api/chat/v1/state", nil)
	res, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	env := decodeEnvelope(t, res)
	assert.True(t, env.Success)

	var state map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, false, state["busy"])
	assert.Equal(t, "", state["active_chat_id"])
}

func TestSendMessage_RoundTrip(t *testing.T) {
	backend := newFakeBackendServer()
	defer backend.Close()
	app := newTestApp(t, backend.URL)

	payload, _ := json.Marshal(map[string]string{"text": "review my summary section"})
	req := httptest.NewRequest("POST", "/api/chat/v1/message", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	env := decodeEnvelope(t, res)

	var state struct {
		Turns []struct {
			Text   string `json:"text"`
			Sender string `json:"sender"`
		} `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	require.Len(t, state.Turns, 2)
	assert.Equal(t, "user", state.Turns[0].Sender)
	assert.Equal(t, "A canned answer.", state.Turns[1].Text)
}

func TestSendMessage_EmptyTextIsSilentNoOp(t *testing.T) {
	backend := newFakeBackendServer()
	defer backend.Close()
	app := newTestApp(t, backend.URL)

	req := httptest.NewRequest("POST", "/api/chat/v1/message", strings.NewReader(`{"text":"   "}`))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	require.NoError(t, err)

	// Empty text is not an error, just an unchanged state.
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	env := decodeEnvelope(t, res)
	assert.True(t, env.Success)

	var state struct {
		Turns []json.RawMessage `json:"turns"`
		Busy  bool              `json:"busy"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Empty(t, state.Turns)
	assert.False(t, state.Busy)
}

func TestUploadResume_MultipartRoundTrip(t *testing.T) {
	backend := newFakeBackendServer()
	defer backend.Close()
	app := newTestApp(t, backend.URL)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF fake"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/chat/v1/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	env := decodeEnvelope(t, res)

	var state struct {
		ResumeUploaded bool `json:"resume_uploaded"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.True(t, state.ResumeUploaded)
}

func TestUploadResume_UnsupportedExtensionIs400(t *testing.T) {
	backend := newFakeBackendServer()
	defer backend.Close()
	app := newTestApp(t, backend.URL)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "resume.txt")
	require.NoError(t, err)
	part.Write([]byte("plain text"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/chat/v1/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestUploadResume_MissingFileIs400(t *testing.T) {
	backend := newFakeBackendServer()
	defer backend.Close()
	app := newTestApp(t, backend.URL)

	req := httptest.NewRequest("POST", "/api/chat/v1/upload", nil)
	res, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestSelectPreset_InvalidIdIs400(t *testing.T) {
	backend := newFakeBackendServer()
	defer backend.Close()
	app := newTestApp(t, backend.URL)

	res, err := app.Test(httptest.NewRequest("POST", "/api/chat/v1/preset/9", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("POST", "/api/chat/v1/preset/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	backend := newFakeBackendServer()
	defer backend.Close()
	app := newTestApp(t, backend.URL)

	// Create a session by sending a message.
	payload, _ := json.Marshal(map[string]string{"text": "make me a session"})
	req := httptest.NewRequest("POST", "/api/chat/v1/message", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	// It shows up in the listing.
	res, err = app.Test(httptest.NewRequest("GET", "/api/chat/v1/sessions", nil))
	require.NoError(t, err)
	env := decodeEnvelope(t, res)
	var sessions []struct {
		Id    int64  `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "make me a session", sessions[0].Title)

	// Start a new chat, then reselect the session.
	res, err = app.Test(httptest.NewRequest("POST", "/api/chat/v1/new", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	selectURL := "/api/chat/v1/sessions/" + strconv.FormatInt(sessions[0].Id, 10) + "/select"
	res, err = app.Test(httptest.NewRequest("POST", selectURL, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	// Delete it and confirm the listing is empty.
	res, err = app.Test(httptest.NewRequest("DELETE", "/api/chat/v1/sessions/"+strconv.FormatInt(sessions[0].Id, 10), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/api/chat/v1/sessions", nil))
	require.NoError(t, err)
	env = decodeEnvelope(t, res)
	require.NoError(t, json.Unmarshal(env.Data, &sessions))
	assert.Empty(t, sessions)
}

func TestBusyStateMapsTo429(t *testing.T) {
	// A backend that parks /query keeps the service busy while a second
	// request arrives.
	release := make(chan struct{})
	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		json.NewEncoder(w).Encode(map[string]string{"response": "late"})
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()
	app := newTestApp(t, backend.URL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		payload, _ := json.Marshal(map[string]string{"text": "slow"})
		req := httptest.NewRequest("POST", "/api/chat/v1/message", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		res, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	}()

	<-started
	payload, _ := json.Marshal(map[string]string{"text": "impatient"})
	req := httptest.NewRequest("POST", "/api/chat/v1/message", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusTooManyRequests, res.StatusCode)

	close(release)
	<-done
}
