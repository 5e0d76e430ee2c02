// Package classify 根据前缀与长度对用户输入进行归类。
package classify

import (
	"strings"
	"unicode/utf8"
)

// Kind 标记一条输入的类别。
type Kind int

const (
	PlainText Kind = iota
	WalletAddress
	IBAN
	URL
)

var kindNames = map[Kind]string{
	PlainText:     "plain_text",
	WalletAddress: "wallet",
	IBAN:          "iban",
	URL:           "url",
}

// String 返回配置与日志中使用的类别名称。
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind 将名称解析为 Kind，名称不区分大小写。
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, candidate := range kindNames {
		if candidate == name {
			return kind, true
		}
	}
	return PlainText, false
}

// Input 是归类后的输入，创建后不再修改。
type Input struct {
	Raw  string
	Kind Kind
}

type rule struct {
	kind  Kind
	match func(string) bool
}

// rules 按优先级排列，第一条命中的规则决定类别。
var rules = []rule{
	{kind: WalletAddress, match: func(s string) bool {
		return strings.HasPrefix(s, "0x") && utf8.RuneCountInString(s) == 42
	}},
	{kind: IBAN, match: func(s string) bool {
		return strings.HasPrefix(s, "LT") && utf8.RuneCountInString(s) == 20
	}},
	{kind: URL, match: func(s string) bool {
		return strings.Contains(s, "http")
	}},
}

// Classify 对原始输入归类。除前缀与长度外不做任何校验，
// 例如含非十六进制字符的 42 位 0x 字符串仍视为钱包地址。
func Classify(raw string) Input {
	for _, r := range rules {
		if r.match(raw) {
			return Input{Raw: raw, Kind: r.kind}
		}
	}
	return Input{Raw: raw, Kind: PlainText}
}
