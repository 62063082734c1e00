package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func uploadResume(path string) (*http.Response, []byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", path)
	if err != nil {
		return nil, nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, nil, err
	}
	writer.Close()

	req, err := http.NewRequest("POST", baseURL+"/chat/v1/upload", &body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting Chat API smoke test\n")

	// 1. Fresh state
	color.Yellow("\n1. Get Chat State")
	resp, body, err := sendRequest("GET", "/chat/v1/state", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var stateResp map[string]interface{}
	json.Unmarshal(body, &stateResp)
	prettyPrint(stateResp)

	// 2. Upload resume (optional, pass a path as first arg)
	if len(os.Args) > 1 {
		color.Yellow("\n2. Upload Resume %s", os.Args[1])
		resp, body, err = uploadResume(os.Args[1])
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		color.Green("Status: %s", resp.Status)
	} else {
		color.Yellow("\n2. Skipping upload (no file argument)")
	}

	// 3. Send a message, which should materialize a session
	color.Yellow("\n3. Send Message")
	resp, body, err = sendRequest("POST", "/chat/v1/message", map[string]interface{}{
		"text": "How can I improve my resume for a software engineering position?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var msgResp map[string]interface{}
	json.Unmarshal(body, &msgResp)
	prettyPrint(msgResp)

	// 4. List sessions
	color.Yellow("\n4. Get All Sessions")
	resp, body, err = sendRequest("GET", "/chat/v1/sessions", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var sessionsResp map[string]interface{}
	json.Unmarshal(body, &sessionsResp)
	prettyPrint(sessionsResp)

	// 5. Preset conversations
	for _, preset := range []int{1, 2, 3} {
		color.Yellow("\n5. Select Preset %d", preset)
		resp, body, err = sendRequest("POST", fmt.Sprintf("/chat/v1/preset/%d", preset), nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		color.Green("Status: %s", resp.Status)
		var presetResp map[string]interface{}
		json.Unmarshal(body, &presetResp)
		prettyPrint(presetResp)
	}

	color.Cyan("\n✅ Smoke test finished")
}
