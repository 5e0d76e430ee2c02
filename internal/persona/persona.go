// Package persona 管理发送给大模型的人设说明与控制台文案。
package persona

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"CyberGuard/internal/classify"

	"gopkg.in/yaml.v3"
)

// DefaultName 是未指定人设时使用的名称。
const DefaultName = "cyberguard_v3"

const (
	placeholderInput = "{{input}}"
	placeholderExtra = "{{extra}}"
)

// Persona 描述一个完整的分析人设：提示词、允许的补充查询以及控制台文案。
type Persona struct {
	Name        string `yaml:"name"`
	Instruction string `yaml:"instruction"`
	// Template 支持 {{input}} 与 {{extra}} 两个占位符。
	Template string `yaml:"template"`
	// WalletSubject 非空时，钱包地址输入在提示词中替换为该文本。
	WalletSubject    string   `yaml:"wallet_subject"`
	Enrichers        []string `yaml:"enrichers"`
	MaxTokens        int      `yaml:"max_tokens"`
	Banner           string   `yaml:"banner"`
	Prompt           string   `yaml:"prompt"`
	ReplyLabel       string   `yaml:"reply_label"`
	Farewell         string   `yaml:"farewell"`
	// 布尔字段经 entry 解码，以区分未填写与显式 false。
	Separator        bool `yaml:"-"`
	WarnOnSuspicious bool `yaml:"-"`
}

// entry 是人设文件中的一条记录。
type entry struct {
	Persona          `yaml:",inline"`
	Separator        *bool `yaml:"separator"`
	WarnOnSuspicious *bool `yaml:"warn_on_suspicious"`
}

// Allows 判断该人设是否启用指定类别的补充查询。
func (p Persona) Allows(kind classify.Kind) bool {
	for _, name := range p.Enrichers {
		if k, ok := classify.ParseKind(name); ok && k == kind {
			return true
		}
	}
	return false
}

// Render 用 subject 与 extra 替换模板占位符，只替换一轮。
func (p Persona) Render(subject, extra string) string {
	template := p.Template
	if template == "" {
		template = placeholderInput
	}
	return strings.NewReplacer(placeholderInput, subject, placeholderExtra, extra).Replace(template)
}

// Validate 检查人设是否可用。
func (p Persona) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("人设名称不能为空")
	}
	if strings.TrimSpace(p.Instruction) == "" {
		return fmt.Errorf("人设 %s 缺少 instruction", p.Name)
	}
	for _, name := range p.Enrichers {
		if _, ok := classify.ParseKind(name); !ok {
			return fmt.Errorf("人设 %s 使用了未知的补充类别 %s", p.Name, name)
		}
	}
	return nil
}

// Registry 按名称保存人设。
type Registry struct {
	personas map[string]Persona
}

// Builtin 返回内置人设组成的注册表。
func Builtin() *Registry {
	r := &Registry{personas: make(map[string]Persona, len(builtin))}
	for _, p := range builtin {
		r.personas[p.Name] = p
	}
	return r
}

// LoadFile 在内置人设的基础上加载 YAML 文件中的人设，同名条目覆盖内置值。
// path 为空时只返回内置人设。
func LoadFile(path string) (*Registry, error) {
	r := Builtin()
	if strings.TrimSpace(path) == "" {
		return r, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取人设文件失败: %w", err)
	}

	var doc struct {
		Personas []entry `yaml:"personas"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("解析人设文件失败: %w", err)
	}
	for _, e := range doc.Personas {
		base, ok := r.personas[e.Name]
		if !ok {
			base = Persona{Name: e.Name}
		}
		p := merge(base, e)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		r.personas[p.Name] = p
	}
	return r, nil
}

// Lookup 根据名称查找人设，名称为空时返回默认人设。
func (r *Registry) Lookup(name string) (Persona, error) {
	if r == nil {
		return Persona{}, fmt.Errorf("人设注册表未初始化")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	p, ok := r.personas[name]
	if !ok {
		return Persona{}, fmt.Errorf("未知的人设: %s (可选: %s)", name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Names 返回全部人设名称，按字母排序。
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.personas))
	for name := range r.personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// merge 用 override 中填写过的字段覆盖 base。
func merge(base Persona, override entry) Persona {
	out := base
	if override.Instruction != "" {
		out.Instruction = override.Instruction
	}
	if override.Template != "" {
		out.Template = override.Template
	}
	if override.WalletSubject != "" {
		out.WalletSubject = override.WalletSubject
	}
	if override.Enrichers != nil {
		out.Enrichers = override.Enrichers
	}
	if override.MaxTokens > 0 {
		out.MaxTokens = override.MaxTokens
	}
	if override.Banner != "" {
		out.Banner = override.Banner
	}
	if override.Prompt != "" {
		out.Prompt = override.Prompt
	}
	if override.ReplyLabel != "" {
		out.ReplyLabel = override.ReplyLabel
	}
	if override.Farewell != "" {
		out.Farewell = override.Farewell
	}
	if override.Separator != nil {
		out.Separator = *override.Separator
	}
	if override.WarnOnSuspicious != nil {
		out.WarnOnSuspicious = *override.WarnOnSuspicious
	}
	return out
}
