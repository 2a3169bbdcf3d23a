package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona 描述智能体的人格设定，由 YAML 文件加载。
type Persona struct {
	Name         string   `yaml:"name"`
	Bio          []string `yaml:"bio"`
	Topics       []string `yaml:"topics"`
	Adjectives   []string `yaml:"adjectives"`
	Style        Style    `yaml:"style"`
	PostExamples []string `yaml:"post_examples"`
	// Templates 允许按场景覆盖内置的提示词模板。
	Templates Templates `yaml:"templates"`
}

// Style 是分场景的行文风格约束。
type Style struct {
	All  []string `yaml:"all"`
	Post []string `yaml:"post"`
	Chat []string `yaml:"chat"`
}

// Templates 是可选的模板覆盖，留空则使用内置模板。
type Templates struct {
	Post     string `yaml:"post"`
	Decision string `yaml:"decision"`
	Reply    string `yaml:"reply"`
}

// Load 从 YAML 文件加载人格设定。
func Load(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取人格配置失败: %w", err)
	}
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("解析人格配置失败: %w", err)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("人格配置缺少 name 字段")
	}
	return &p, nil
}

// Summary 拼出人格设定的简述段落，供提示词模板引用。
func (p *Persona) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "About %s:\n", p.Name)
	if len(p.Bio) > 0 {
		b.WriteString(strings.Join(p.Bio, "\n"))
		b.WriteString("\n")
	}
	if len(p.Topics) > 0 {
		fmt.Fprintf(&b, "\nTopics of interest: %s\n", strings.Join(p.Topics, ", "))
	}
	if len(p.Adjectives) > 0 {
		fmt.Fprintf(&b, "Personality: %s\n", strings.Join(p.Adjectives, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// StyleDirections 汇总通用风格与指定场景风格的行文要求。
func (p *Persona) StyleDirections(scene string) string {
	lines := append([]string{}, p.Style.All...)
	switch scene {
	case "post":
		lines = append(lines, p.Style.Post...)
	case "chat":
		lines = append(lines, p.Style.Chat...)
	}
	if len(lines) == 0 {
		return ""
	}
	return "Style directions:\n- " + strings.Join(lines, "\n- ")
}

// Examples 列出示例帖子，供生成时模仿口吻。
func (p *Persona) Examples() string {
	if len(p.PostExamples) == 0 {
		return ""
	}
	return "Example posts:\n" + strings.Join(p.PostExamples, "\n---\n")
}
