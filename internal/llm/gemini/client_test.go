package gemini

import (
	"context"
	"errors"
	"sync"
	"testing"

	"google.golang.org/genai"

	"ats-backend/internal/llm"
)

type fakeModels struct {
	mu     sync.Mutex
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestCompleteConfiguresJSONAndSystemInstruction(t *testing.T) {
	fake := &fakeModels{resp: textResponse(` {"job_title":"Nurse"} `)}
	client := newClient(fake, "")

	out, err := client.Complete(context.Background(), llm.Request{System: "extract fields", Prompt: "jd", JSON: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"job_title":"Nurse"}` {
		t.Fatalf("unexpected output %q", out)
	}
	if fake.model != defaultModel {
		t.Fatalf("expected default model, got %q", fake.model)
	}
	if fake.prompt != "jd" {
		t.Fatalf("unexpected prompt %q", fake.prompt)
	}
	if fake.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON mime type, got %q", fake.config.ResponseMIMEType)
	}
	if fake.config.Temperature == nil || *fake.config.Temperature != 0 {
		t.Fatalf("expected temperature 0")
	}
	if fake.config.SystemInstruction == nil || fake.config.SystemInstruction.Parts[0].Text != "extract fields" {
		t.Fatalf("expected system instruction to be set")
	}
}

func TestCompleteClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"auth", genai.APIError{Code: 403, Message: "API key not valid", Status: "PERMISSION_DENIED"}, llm.ErrAuth},
		{"quota", genai.APIError{Code: 429, Message: "Resource has been exhausted", Status: "RESOURCE_EXHAUSTED"}, llm.ErrQuota},
		{"unavailable", genai.APIError{Code: 503, Message: "The model is overloaded", Status: "UNAVAILABLE"}, llm.ErrUnavailable},
		{"transport", errors.New("dial tcp: connection refused"), llm.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(&fakeModels{err: tt.err}, "gemini-2.5-pro")
			_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCompleteRejectsEmptyResponse(t *testing.T) {
	client := newClient(&fakeModels{resp: textResponse("   ")}, "")
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	if !errors.Is(err, llm.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "  ", "", 0); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
