package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cassandra-labs/foresight/internal/domain"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n[1,2]\n```", "[1,2]"},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestInvokeParsesTypedResult(t *testing.T) {
	client := NewMockClient()
	client.DefaultResponse = "```json\n[{\"summary\":\"s\",\"citation\":\"c\"}]\n```"

	signals, err := Invoke[[]domain.SignalEvidence](context.Background(), client, "extract signals")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals) != 1 || signals[0].Summary != "s" {
		t.Errorf("signals = %+v", signals)
	}
}

func TestInvokeMalformedOutput(t *testing.T) {
	client := NewMockClient()
	client.DefaultResponse = "I cannot answer that."

	if _, err := Invoke[[]domain.SignalEvidence](context.Background(), client, "extract"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestInvokeTransportError(t *testing.T) {
	client := NewMockClient()
	client.OnErr("extract", errors.New("backend down"))

	if _, err := Invoke[[]int](context.Background(), client, "extract indices"); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestMockClientRouting(t *testing.T) {
	client := NewMockClient()
	client.On("alpha", "1").On("beta", "2")

	got, err := client.Complete(context.Background(), "prompt about beta things")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2" {
		t.Errorf("response = %q, want 2", got)
	}
	if client.CallCount() != 1 {
		t.Errorf("call count = %d", client.CallCount())
	}
}
