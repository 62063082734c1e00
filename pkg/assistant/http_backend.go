package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

type uploadResponse struct {
	Message string `json:"message"`
}

// HTTPBackend talks JSON over HTTP to the inference backend at a fixed base URL.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBackend(baseURL string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Upload sends the resume as a multipart form under the "file" field and
// returns the backend's confirmation message.
func (b *HTTPBackend) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"%w: got status %d with response body %s",
			ErrBackendStatus, res.StatusCode, string(resBody),
		)
	}

	var uploadRes uploadResponse
	if err := json.Unmarshal(resBody, &uploadRes); err != nil {
		return "", err
	}
	return uploadRes.Message, nil
}

// Query asks a free-form question about the uploaded resume.
func (b *HTTPBackend) Query(ctx context.Context, query string) (string, error) {
	payloadJson, err := json.Marshal(queryRequest{Query: query})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/query", bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"%w: got status %d with response body %s",
			ErrBackendStatus, res.StatusCode, string(resBody),
		)
	}

	var queryRes queryResponse
	if err := json.Unmarshal(resBody, &queryRes); err != nil {
		return "", err
	}
	return queryRes.Response, nil
}

// Status probes backend health. The body is opaque status JSON, logged only.
func (b *HTTPBackend) Status(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", b.baseURL+"/status", nil)
	if err != nil {
		return nil, err
	}

	res, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: got status %d", ErrBackendStatus, res.StatusCode)
	}
	return json.RawMessage(resBody), nil
}

// InterviewQuestions asks the backend to generate interview questions from
// the uploaded resume. A non-2xx reply maps to ErrBackendStatus, a 2xx reply
// carrying an error field maps to ErrBackendReported.
func (b *HTTPBackend) InterviewQuestions(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/interview_questions", bytes.NewBufferString("{}"))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"%w: got status %d with response body %s",
			ErrBackendStatus, res.StatusCode, string(resBody),
		)
	}

	var questionsRes queryResponse
	if err := json.Unmarshal(resBody, &questionsRes); err != nil {
		return "", err
	}
	if questionsRes.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrBackendReported, questionsRes.Error)
	}
	return questionsRes.Response, nil
}
