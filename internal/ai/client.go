// Package ai wraps the OpenAI chat-completions endpoint for quiz generation.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrUnavailable = errors.New("completion service unavailable")
	ErrTimeout     = errors.New("completion service timed out")
	ErrBadResponse = errors.New("completion response is not a valid quiz")
)

// Question is one multiple-choice question in a generated quiz.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// GeneratedQuiz is the parsed document the model is instructed to return.
type GeneratedQuiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// QuizGenerator turns raw note text into a structured quiz.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, notes string) (*GeneratedQuiz, error)
}

type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

func NewClient(apiKey, apiURL, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are a quiz generator assistant."

const userPromptTemplate = `Create a quiz based on the following notes. Ignore any pictures or links. Output the quiz in JSON format with the following structure:
{
    "title": "Quiz Title",
    "questions": [
        {
            "question": "Question text",
            "options": ["Option A", "Option B", "Option C", "Option D"],
            "correct_answer": "Correct option",
            "explanation": "Explanation for the correct answer"
        }
    ]
}

Don't include the letter in the option choices or correct answer. Make the quiz a suitable length based on the notes provided. Here are the notes to base the quiz on:
%s`

func (c *Client) GenerateQuiz(ctx context.Context, notes string) (*GeneratedQuiz, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, notes)},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrBadResponse)
	}

	return ParseQuizJSON(chatResp.Choices[0].Message.Content)
}

// ParseQuizJSON strips any code-fence markup the model wraps the JSON in and
// parses the quiz document, validating its shape.
func ParseQuizJSON(content string) (*GeneratedQuiz, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			content = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var quiz GeneratedQuiz
	if err := json.Unmarshal([]byte(content), &quiz); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrBadResponse)
	}
	for i, q := range quiz.Questions {
		if q.Question == "" || len(q.Options) != 4 || q.CorrectAnswer == "" {
			return nil, fmt.Errorf("%w: malformed question at index %d", ErrBadResponse, i)
		}
	}
	return &quiz, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
