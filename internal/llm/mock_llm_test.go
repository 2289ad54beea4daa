package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMockLLM_FixedResponse(t *testing.T) {
	mock := NewMockLLM("fixed")

	got, err := mock.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "fixed" {
		t.Errorf("Expected fixed response, got %q", got)
	}
	if mock.LastPrompt() != "prompt" {
		t.Errorf("Expected last prompt to be recorded, got %q", mock.LastPrompt())
	}
	if mock.Calls() != 1 {
		t.Errorf("Expected 1 call, got %d", mock.Calls())
	}
}

func TestMockLLM_Error(t *testing.T) {
	want := errors.New("boom")
	mock := NewMockLLMWithError(want)

	if _, err := mock.Generate(context.Background(), "prompt"); !errors.Is(err, want) {
		t.Errorf("Expected configured error, got %v", err)
	}
}

func TestMockLLM_DerivedResponse(t *testing.T) {
	mock := &MockLLM{}
	prompt := "Context:\nAspirin thins the blood.\n\nQuestion:\nWhat does aspirin do?\n\nAnswer:\n"

	got, err := mock.Generate(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(got, "Aspirin thins the blood.") {
		t.Errorf("Expected response to include context, got %q", got)
	}
	if !strings.Contains(got, "What does aspirin do?") {
		t.Errorf("Expected response to include question, got %q", got)
	}
}

func TestMockLLM_NoSections(t *testing.T) {
	got, _ := (&MockLLM{}).Generate(context.Background(), "hello")
	if got != "No context was provided." {
		t.Errorf("Unexpected response %q", got)
	}
}
