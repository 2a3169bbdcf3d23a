package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"OpenLens-Chain/internal/llm"
)

func TestParseDecision(t *testing.T) {
	cases := []struct {
		content string
		want    llm.Decision
	}{
		{"RESPOND", llm.DecisionRespond},
		{"respond", llm.DecisionRespond},
		{"I think the best action is to IGNORE this.", llm.DecisionIgnore},
		{"STOP", llm.DecisionStop},
		{"RESPOND. Definitely not IGNORE.", llm.DecisionRespond},
		{"no decision word at all", llm.DecisionIgnore},
		{"", llm.DecisionIgnore},
	}
	for _, tc := range cases {
		if got := ParseDecision(tc.content); got != tc.want {
			t.Fatalf("content %q: got %s, want %s", tc.content, got, tc.want)
		}
	}
}

func TestClientSelectsModelByQuality(t *testing.T) {
	var models []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		models = append(models, body.Model)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "RESPOND"}},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		SmallModel: "small-model",
		LargeModel: "large-model",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	if _, err := client.Decide(ctx, llm.Request{Context: "ctx", Quality: llm.QualitySmall}); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if _, err := client.Generate(ctx, llm.Request{Context: "ctx", Quality: llm.QualityLarge}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(models) != 2 || models[0] != "small-model" || models[1] != "large-model" {
		t.Fatalf("unexpected model selection: %v", models)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
