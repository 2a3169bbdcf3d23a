package persona

import (
	"fmt"
	"strings"

	"OpenLens-Chain/internal/lens"
)

// 内置提示词模板。人格配置可以按场景整体覆盖。
const (
	defaultPostTemplate = `{{summary}}

{{examples}}

{{style}}

Recent timeline:
{{timeline}}

Task: write a single original post in the voice of {{name}}.
Keep it under 280 characters. Do not use hashtags unless they fit naturally.
Reply with the post text only, no quotes and no commentary.`

	defaultDecisionTemplate = `{{summary}}

You are {{name}} (@{{handle}}) on a social publication network.
Someone mentioned you or commented on your post:

{{thread}}

Decide how to react. Respond with exactly one word:
RESPOND if the mention deserves a reply from {{name}},
IGNORE if it is irrelevant, spam, or needs no answer,
STOP if {{name}} was asked to stop replying in this conversation.`

	defaultReplyTemplate = `{{summary}}

{{style}}

You are {{name}} (@{{handle}}). Here is the conversation so far:

{{thread}}

Task: write {{name}}'s reply to the last message.
Keep it under 280 characters and stay in character.
Reply with the reply text only, no quotes and no commentary.`
)

// FormatPublication 把一篇发布渲染为提示词中的一段。
func FormatPublication(pub lens.Publication) string {
	author := pub.AuthorDisplayName
	if author == "" {
		author = pub.AuthorHandle
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\n", pub.ID)
	if pub.ParentID != "" {
		fmt.Fprintf(&b, "In reply to: %s\n", pub.ParentID)
	}
	fmt.Fprintf(&b, "From: %s (@%s)\n", author, pub.AuthorHandle)
	fmt.Fprintf(&b, "Text: %s", pub.Text)
	return b.String()
}

// FormatThread 把会话线索按根帖在前的顺序渲染为提示词片段。
func FormatThread(thread []lens.Publication) string {
	parts := make([]string, 0, len(thread))
	for _, pub := range thread {
		parts = append(parts, FormatPublication(pub))
	}
	return strings.Join(parts, "\n\n")
}

// FormatTimeline 渲染时间线摘要。
func FormatTimeline(timeline []lens.Publication) string {
	if len(timeline) == 0 {
		return "(timeline is empty)"
	}
	return FormatThread(timeline)
}

// ComposePostContext 组装自主发帖的提示词上下文。
func (p *Persona) ComposePostContext(handle string, timeline []lens.Publication) string {
	template := p.Templates.Post
	if template == "" {
		template = defaultPostTemplate
	}
	return p.render(template, handle, map[string]string{
		"{{timeline}}": FormatTimeline(timeline),
	})
}

// ComposeDecisionContext 组装提及处置决策的提示词上下文。
func (p *Persona) ComposeDecisionContext(handle string, thread []lens.Publication) string {
	template := p.Templates.Decision
	if template == "" {
		template = defaultDecisionTemplate
	}
	return p.render(template, handle, map[string]string{
		"{{thread}}": FormatThread(thread),
	})
}

// ComposeReplyContext 组装回复生成的提示词上下文。
func (p *Persona) ComposeReplyContext(handle string, thread []lens.Publication) string {
	template := p.Templates.Reply
	if template == "" {
		template = defaultReplyTemplate
	}
	return p.render(template, handle, map[string]string{
		"{{thread}}": FormatThread(thread),
	})
}

// render 做占位符替换。场景风格由模板种类决定：
// 发帖模板用 post 风格，其余用 chat 风格。
func (p *Persona) render(template, handle string, extra map[string]string) string {
	scene := "chat"
	if strings.Contains(template, "{{timeline}}") {
		scene = "post"
	}
	replacements := map[string]string{
		"{{name}}":     p.Name,
		"{{handle}}":   handle,
		"{{summary}}":  p.Summary(),
		"{{style}}":    p.StyleDirections(scene),
		"{{examples}}": p.Examples(),
	}
	for key, value := range extra {
		replacements[key] = value
	}
	out := template
	for key, value := range replacements {
		out = strings.ReplaceAll(out, key, value)
	}
	// 去掉因可选段留空产生的连续空行。
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}
