package persona

import (
	"strings"
	"testing"

	"OpenLens-Chain/internal/lens"
)

func samplePersona() *Persona {
	return &Persona{
		Name:         "Aria",
		Bio:          []string{"onchain culture commentator"},
		Topics:       []string{"governance", "creator economies"},
		Adjectives:   []string{"curious", "direct"},
		Style:        Style{All: []string{"lower case"}, Post: []string{"one idea per post"}, Chat: []string{"answer first"}},
		PostExamples: []string{"gm to governance forum readers"},
	}
}

func TestFormatPublication(t *testing.T) {
	pub := lens.Publication{
		ID:           "0x05-0x01",
		AuthorHandle: "bob",
		Text:         "what do you think?",
		ParentID:     "0x05-0x00",
	}
	formatted := FormatPublication(pub)
	if !strings.Contains(formatted, "ID: 0x05-0x01") {
		t.Fatalf("missing id: %s", formatted)
	}
	if !strings.Contains(formatted, "In reply to: 0x05-0x00") {
		t.Fatalf("missing parent reference: %s", formatted)
	}
	if !strings.Contains(formatted, "(@bob)") {
		t.Fatalf("missing author handle: %s", formatted)
	}
}

func TestComposePostContext(t *testing.T) {
	p := samplePersona()
	timeline := []lens.Publication{{ID: "0x09-0x01", AuthorHandle: "bob", Text: "timeline item"}}

	prompt := p.ComposePostContext("aria", timeline)
	for _, fragment := range []string{"About Aria:", "timeline item", "one idea per post", "gm to governance forum readers"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
	if strings.Contains(prompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt:\n%s", prompt)
	}
}

func TestComposeDecisionContext(t *testing.T) {
	p := samplePersona()
	thread := []lens.Publication{{ID: "0x05-0x01", AuthorHandle: "bob", Text: "hey @aria"}}

	prompt := p.ComposeDecisionContext("aria", thread)
	for _, fragment := range []string{"RESPOND", "IGNORE", "STOP", "hey @aria", "@aria"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestComposeReplyContextUsesChatStyle(t *testing.T) {
	p := samplePersona()
	thread := []lens.Publication{{ID: "0x05-0x01", AuthorHandle: "bob", Text: "hey"}}

	prompt := p.ComposeReplyContext("aria", thread)
	if !strings.Contains(prompt, "answer first") {
		t.Fatalf("reply prompt must carry chat style:\n%s", prompt)
	}
	if strings.Contains(prompt, "one idea per post") {
		t.Fatalf("reply prompt must not carry post style:\n%s", prompt)
	}
}

func TestTemplateOverride(t *testing.T) {
	p := samplePersona()
	p.Templates.Reply = "custom template for {{name}}: {{thread}}"

	prompt := p.ComposeReplyContext("aria", []lens.Publication{{ID: "x", Text: "hi"}})
	if !strings.HasPrefix(prompt, "custom template for Aria:") {
		t.Fatalf("override not applied:\n%s", prompt)
	}
}
