package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

var sessionID string

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
	if sessionID != "" {
		req.Header.Set("X-Session-Id", sessionID)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

// tiny valid 1x1 PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89, 0x00, 0x00, 0x00,
	0x0D, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9C, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
}

func uploadNotes(filenames []string) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, name := range filenames {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			return nil, nil, err
		}
		part.Write(pngPixel)
	}
	writer.Close()

	req, err := http.NewRequest("POST", baseURL+"/note/v1/upload", &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if sessionID != "" {
		req.Header.Set("X-Session-Id", sessionID)
	}

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting Note Lifecycle API Test\n")

	// 1. Ensure session
	color.Yellow("\n[SESSION] 1. Ensure Session")
	resp, body, err := sendRequest("POST", "/session/v1", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	sessionID = resp.Header.Get("X-Session-Id")
	color.Green("Session: %s", sessionID)

	// 2. Upload a batch of notes
	color.Yellow("\n[NOTES] 2. Upload Batch (2 images)")
	resp, body, err = uploadNotes([]string{"algebra.png", "biology.png"})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var uploadResp map[string]interface{}
	json.Unmarshal(body, &uploadResp)
	prettyPrint(uploadResp)

	var noteID string
	if data, ok := uploadResp["data"].(map[string]interface{}); ok {
		if accepted, ok := data["accepted"].([]interface{}); ok && len(accepted) > 0 {
			if item, ok := accepted[0].(map[string]interface{}); ok {
				noteID, _ = item["id"].(string)
			}
		}
	}
	if noteID == "" {
		color.Red("No accepted notes, aborting")
		os.Exit(1)
	}

	// 3. Poll progress until everything completes
	color.Yellow("\n[NOTES] 3. Poll Progress")
	for i := 0; i < 30; i++ {
		resp, body, err = sendRequest("GET", "/note/v1/progress", nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		var progressResp struct {
			Data struct {
				Percent      float64 `json:"percent"`
				AllCompleted bool    `json:"all_completed"`
			} `json:"data"`
		}
		json.Unmarshal(body, &progressResp)
		fmt.Printf("  progress: %.0f%%\n", progressResp.Data.Percent)
		if progressResp.Data.AllCompleted {
			color.Green("All notes completed!")
			break
		}
		time.Sleep(2 * time.Second)
	}

	// 4. List completed notes
	color.Yellow("\n[NOTES] 4. List Completed Notes")
	resp, body, _ = sendRequest("GET", "/note/v1/completed", nil)
	color.Green("Status: %s", resp.Status)
	var completedResp map[string]interface{}
	json.Unmarshal(body, &completedResp)
	prettyPrint(completedResp)

	// 5. Generate quiz for the first note
	color.Yellow("\n[STUDY] 5. Generate Quiz")
	resp, body, _ = sendRequest("POST", "/note/v1/"+noteID+"/quiz", map[string]interface{}{
		"question_count": 3,
		"difficulty":     "easy",
	})
	color.Green("Status: %s", resp.Status)
	var quizResp map[string]interface{}
	json.Unmarshal(body, &quizResp)
	prettyPrint(quizResp)

	// 6. Generate explanation
	color.Yellow("\n[STUDY] 6. Generate Explanation")
	resp, body, _ = sendRequest("POST", "/note/v1/"+noteID+"/explanation", nil)
	color.Green("Status: %s", resp.Status)
	var explainResp map[string]interface{}
	json.Unmarshal(body, &explainResp)
	prettyPrint(explainResp)

	// 7. Generate additional content from the summaries
	color.Yellow("\n[STUDY] 7. Generate Additional Content")
	resp, body, _ = sendRequest("POST", "/note/v1/additional-content", map[string]interface{}{
		"filters": map[string]interface{}{"difficulty": "Beginner", "count": 2},
		"summaries": []map[string]interface{}{
			{"note_id": noteID, "filename": "algebra.png", "summary": "Linear equations and slope-intercept form."},
		},
	})
	color.Green("Status: %s", resp.Status)
	var contentResp map[string]interface{}
	json.Unmarshal(body, &contentResp)
	prettyPrint(contentResp)

	// 8. Recent notifications
	color.Yellow("\n[NOTIF] 8. Recent Notifications")
	resp, body, _ = sendRequest("GET", "/notifications/", nil)
	color.Green("Status: %s", resp.Status)
	var notifResp map[string]interface{}
	json.Unmarshal(body, &notifResp)
	prettyPrint(notifResp)

	// 9. Delete the note
	color.Yellow("\n[NOTES] 9. Delete Note")
	resp, _, _ = sendRequest("DELETE", "/note/v1/"+noteID, nil)
	color.Green("Status: %s", resp.Status)

	color.Cyan("\n✅ Note lifecycle flow finished")
}
