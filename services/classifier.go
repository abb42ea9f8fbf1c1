package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"civicstick-be/models"
)

// Classification is the oracle's verdict on a submission. A rejected verdict
// is a valid business outcome, not a fault: the post is still persisted with
// status "rejected", it just never reaches the issue pipeline.
type Classification struct {
	Category   string
	Department models.Department
	Priority   models.Priority
	Summary    string
	Rejected   bool
}

func rejection(reason string) Classification {
	return Classification{
		Category: "rejected",
		Priority: models.PriorityLow,
		Summary:  "Post rejected: " + reason,
		Rejected: true,
	}
}

// Classifier calls the external classification oracle. The endpoint speaks
// the generativelanguage generateContent wire format.
type Classifier struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewClassifier builds a classifier from AI_API_URL and AI_API_KEY.
func NewClassifier() *Classifier {
	return &Classifier{
		BaseURL: os.Getenv("AI_API_URL"),
		APIKey:  os.Getenv("AI_API_KEY"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type oracleInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type oraclePart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *oracleInlineData `json:"inline_data,omitempty"`
}

type oracleContent struct {
	Parts []oraclePart `json:"parts"`
}

type oracleRequest struct {
	Contents []oracleContent `json:"contents"`
}

type oracleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

const classifierPrompt = `You are a strict civic issue classifier. Analyze this post: %q

CRITICAL RULES:
1. ONLY accept issues that EXACTLY match these 8 department categories
2. If the issue does NOT fit ANY department category, respond: "REJECT"
3. If it's irrelevant (social media/personal/ads/entertainment), respond: "REJECT"

ACCEPTED DEPARTMENTS (STRICT MATCHING ONLY):
- pwd: Roads, potholes, construction, buildings, infrastructure repairs
- water: Water leaks, pipe bursts, sewage blockage, drainage problems
- swm: Garbage collection, waste disposal, street cleaning, dustbin issues
- traffic: Traffic signals, parking violations, vehicle issues, road safety
- health: Public health threats, disease outbreaks, hospital issues, sanitation
- environment: Parks maintenance, tree cutting, pollution, garden issues
- electricity: Power outages, street lights, electrical cables, transformer issues
- disaster: Fire, flood, accidents, emergency situations

RESPONSE FORMAT (strict JSON only):
{
  "department": "pwd | water | swm | traffic | health | environment | electricity | disaster",
  "priority": "High | Medium | Low | Critical",
  "summary": "short description"
}

If the issue doesn't fit, just respond: "REJECT"`

// Classify submits the description (and optionally a base64 image) to the
// oracle and returns its verdict. Transport or decode failures degrade to a
// rejection rather than failing the submission: the post is kept, just not
// categorized.
func (cl *Classifier) Classify(ctx context.Context, description, imageData string) Classification {
	parts := []oraclePart{{Text: fmt.Sprintf(classifierPrompt, description)}}
	if imageData != "" {
		parts = append(parts, oraclePart{InlineData: &oracleInlineData{
			MimeType: "image/jpeg",
			Data:     imageData,
		}})
	}

	body, err := json.Marshal(oracleRequest{Contents: []oracleContent{{Parts: parts}}})
	if err != nil {
		return rejection("AI processing error")
	}

	url := cl.BaseURL
	if cl.APIKey != "" {
		url += "?key=" + cl.APIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return rejection("AI processing error")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cl.Client.Do(req)
	if err != nil {
		log.Println("Classifier request failed:", err)
		return rejection("AI processing error")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Println("Classifier returned status:", resp.Status)
		return rejection("AI processing error")
	}

	var decoded oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return rejection("Invalid AI response")
	}

	text := ""
	if len(decoded.Candidates) > 0 && len(decoded.Candidates[0].Content.Parts) > 0 {
		text = strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	}

	return ParseVerdict(text, description)
}

// ParseVerdict interprets the oracle's raw text reply: the REJECT sentinel,
// markdown code fences around the JSON, missing priority/summary defaults,
// and the strict department whitelist. Anything unparseable or outside the
// whitelist is a rejection.
func ParseVerdict(text, description string) Classification {
	if strings.HasPrefix(text, "REJECT") {
		return rejection("Not a civic issue")
	}

	cleaned := stripCodeFence(text)

	var parsed struct {
		Department string `json:"department"`
		Priority   string `json:"priority"`
		Summary    string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return rejection("Invalid AI response")
	}

	dept := strings.ToLower(parsed.Department)
	if !models.IsValidDepartment(dept) {
		return rejection("Does not match any civic department category")
	}

	info := models.Departments[models.Department(dept)]

	priority := models.Priority(parsed.Priority)
	if parsed.Priority == "" {
		priority = info.DefaultPriority
	}

	summary := parsed.Summary
	if summary == "" {
		summary = description
		if len(summary) > 100 {
			summary = summary[:100]
		}
	}

	return Classification{
		Category:   info.Name,
		Department: models.Department(dept),
		Priority:   priority,
		Summary:    summary,
	}
}

// stripCodeFence removes a surrounding ```json ... ``` or ``` ... ``` block.
func stripCodeFence(s string) string {
	if strings.HasPrefix(s, "```json") && strings.HasSuffix(s, "```") {
		return strings.TrimSpace(s[7 : len(s)-3])
	}
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") && len(s) >= 6 {
		return strings.TrimSpace(s[3 : len(s)-3])
	}
	return s
}
