// transcribeclient posts an audio file to a running transcription service
// and prints the result. Useful for smoke-testing a deployment.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	audioFile := flag.String("audio", "testdata/sample.wav", "Path to an audio file (wav, mp3, flac, ogg, ...)")
	serverURL := flag.String("server", "http://localhost:8080", "Transcription service base URL")
	language := flag.String("language", "EN", "Two-letter ISO 639-1 language code or 'auto'")
	timestamp := flag.Bool("timestamp", false, "Request timestamped segments")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mp := multipart.NewWriter(&buf)

	fw, err := mp.CreateFormFile("file", filepath.Base(*audioFile))
	if err != nil {
		log.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		log.Fatalf("Failed to read audio: %v", err)
	}
	mp.WriteField("language", *language)
	mp.WriteField("timestamp", fmt.Sprintf("%t", *timestamp))
	if err := mp.Close(); err != nil {
		log.Fatalf("Failed to finalize form: %v", err)
	}

	client := &http.Client{Timeout: 10 * time.Minute}
	req, err := http.NewRequest(http.MethodPost, *serverURL+"/transcribe", &buf)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mp.FormDataContentType())

	log.Printf("Uploading %s (language=%s timestamp=%t)", *audioFile, *language, *timestamp)
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %s: %s", resp.Status, body)
	}

	var result struct {
		Text     string `json:"text"`
		Segments []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Text  string  `json:"text"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to parse response: %v", err)
	}

	log.Printf("Transcribed in %v", time.Since(start).Round(time.Millisecond))
	fmt.Println(result.Text)
	for _, seg := range result.Segments {
		fmt.Printf("[%8.2f -> %8.2f] %s\n", seg.Start, seg.End, seg.Text)
	}
}
