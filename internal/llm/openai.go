package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Adarshprakash123/aui-interview/internal/interview"
)

const chatCompletionsEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIClient generates interviewer utterances and resume analyses through
// the chat completions API.
type OpenAIClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionsRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIKey:     apiKey,
		Model:      model,
	}
}

func (c *OpenAIClient) complete(ctx context.Context, req chatCompletionsRequest) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("openai api key missing")
	}
	req.Model = c.Model

	reqBody, _ := json.Marshal(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, chatCompletionsEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

func profileSummary(p interview.ResumeProfile) string {
	return fmt.Sprintf(
		"- Seniority Level: %s\n- Years of Experience: %d\n- Skills: %s\n- Technologies: %s\n- Summary: %s",
		p.SeniorityLevel, p.YearsOfExperience,
		strings.Join(p.Skills, ", "), strings.Join(p.Technologies, ", "), p.Summary,
	)
}

// FirstQuestion produces the opening greeting plus first question, seeded
// only by the candidate profile.
func (c *OpenAIClient) FirstQuestion(ctx context.Context, profile interview.ResumeProfile) (string, error) {
	system := fmt.Sprintf(`You are an AI technical interviewer conducting a live video interview.
Your goal is to assess the candidate's technical skills, problem-solving ability, and communication skills.

Candidate Profile:
%s

Guidelines:
- Ask ONE question at a time
- Adjust difficulty based on seniority level
- Be conversational and professional
- Keep questions concise (1-2 sentences)
- DO NOT introduce yourself with a name - just say "I am AI" or simply start the interview naturally
- Start with a friendly greeting: "Hello! I am AI. Let's begin the interview." Then ask the first question.`, profileSummary(profile))

	return c.complete(ctx, chatCompletionsRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: "Start the interview with a greeting and first question."},
		},
		Temperature: 0.7,
		MaxTokens:   200,
	})
}

// NextResponse analyzes the candidate's answer and produces the follow-up
// utterance plus a continuation flag.
func (c *OpenAIClient) NextResponse(ctx context.Context, transcript, priorQuestion string, profile interview.ResumeProfile, history []interview.Message) (string, bool, error) {
	system := fmt.Sprintf(`You are an AI technical interviewer. Analyze the candidate's answer and decide:
1. If the answer is good, ask a follow-up question or move to the next topic
2. If the answer needs clarification, ask a clarifying question
3. Provide brief, natural feedback when appropriate

Candidate Profile:
- Seniority Level: %s
- Skills: %s

Guidelines:
- Keep responses conversational and concise (1-2 sentences)
- DO NOT introduce yourself with a name - you are just AI
- Be natural and professional in your responses`,
		profile.SeniorityLevel, strings.Join(profile.Skills, ", "))

	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: system})
	for _, m := range history {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{
		Role:    "user",
		Content: fmt.Sprintf("Question: %s\n\nCandidate Answer: %s\n\nGenerate your response (question or feedback).", priorQuestion, transcript),
	})

	response, err := c.complete(ctx, chatCompletionsRequest{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		return "", false, err
	}
	return response, true, nil
}

// AnalyzeResume extracts the structured candidate profile from raw resume
// text using JSON-mode completion. Extraction limits input to avoid token
// limits; missing fields are normalized to defaults.
func (c *OpenAIClient) AnalyzeResume(ctx context.Context, resumeText string) (interview.ResumeProfile, error) {
	const maxResumeChars = 8000
	if len(resumeText) > maxResumeChars {
		resumeText = resumeText[:maxResumeChars]
	}

	prompt := fmt.Sprintf(`Analyze the following resume and extract structured information. Return a JSON object with the following structure:
{
  "skills": ["skill1", "skill2", ...],
  "yearsOfExperience": number,
  "projects": ["project1", "project2", ...],
  "technologies": ["tech1", "tech2", ...],
  "seniorityLevel": "junior" | "mid" | "senior",
  "summary": "Brief summary of the candidate"
}

Resume text:
%s

Return ONLY valid JSON, no additional text.`, resumeText)

	raw, err := c.complete(ctx, chatCompletionsRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a resume analyzer. Extract structured information from resumes and return valid JSON only."},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.3,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return interview.ResumeProfile{}, err
	}

	var profile interview.ResumeProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return interview.ResumeProfile{}, fmt.Errorf("openai: invalid resume analysis json: %w", err)
	}
	if profile.SeniorityLevel == "" {
		profile.SeniorityLevel = "junior"
	}
	if profile.Summary == "" {
		profile.Summary = "No summary available"
	}
	if profile.Skills == nil {
		profile.Skills = []string{}
	}
	if profile.Technologies == nil {
		profile.Technologies = []string{}
	}
	if profile.Projects == nil {
		profile.Projects = []string{}
	}
	return profile, nil
}
