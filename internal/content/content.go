package content

import "context"

// Envelope 是发布正文在持久化前的规范化表示。
type Envelope struct {
	Version string `json:"version"`
	Kind    string `json:"$schema"`
	Lens    struct {
		Content string `json:"content"`
		Locale  string `json:"locale"`
	} `json:"lens"`
}

// TextOnly 将纯文本包装为规范化的内容信封。
func TextOnly(text string) Envelope {
	env := Envelope{
		Version: "2.0.0",
		Kind:    "https://json-schemas.lens.dev/publications/text-only/3.0.0.json",
	}
	env.Lens.Content = text
	env.Lens.Locale = "en"
	return env
}

// Pinner 将内容信封持久化并返回内容寻址 URI。
type Pinner interface {
	Pin(ctx context.Context, v any) (string, error)
}
