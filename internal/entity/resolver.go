package entity

import (
	"strings"
)

// Alias maps a case-insensitive filename fragment to a canonical company name
type Alias struct {
	Match string `yaml:"match" json:"match"`
	Label string `yaml:"label" json:"label"`
}

// builtinAliases is checked in order; the first fragment found wins
var builtinAliases = []Alias{
	{Match: "general dynamics", Label: "General Dynamics"},
	{Match: "lockheed martin", Label: "Lockheed Martin"},
	{Match: "northrop grumman", Label: "Northrop Grumman"},
	{Match: "rtx corp", Label: "RTX Corp"},
	{Match: "boeing", Label: "Boeing"},
}

// recognizedExtensions are stripped from unmatched labels
var recognizedExtensions = []string{".csv", ".tsv", ".txt", ".xlsx", ".xls", ".html", ".htm"}

// Resolver maps input labels to company names
// ⭐ SSOT: 파일명 → 회사명 변환은 여기서만
type Resolver struct {
	aliases []Alias
}

// NewResolver builds a resolver. Extra aliases are consulted before the
// built-in table so a deployment can specialize a broader built-in match.
func NewResolver(extra ...Alias) *Resolver {
	aliases := make([]Alias, 0, len(extra)+len(builtinAliases))
	for _, a := range extra {
		match := strings.ToLower(strings.TrimSpace(a.Match))
		label := strings.TrimSpace(a.Label)
		if match == "" || label == "" {
			continue
		}
		aliases = append(aliases, Alias{Match: match, Label: label})
	}
	aliases = append(aliases, builtinAliases...)

	return &Resolver{aliases: aliases}
}

// Default returns a resolver with only the built-in table
func Default() *Resolver {
	return NewResolver()
}

// Aliases returns the effective table in match order
func (r *Resolver) Aliases() []Alias {
	out := make([]Alias, len(r.aliases))
	copy(out, r.aliases)
	return out
}

// Resolve returns the canonical company for a filename or identifier.
// Unmatched labels come back as their base name without a known extension.
func (r *Resolver) Resolve(label string) string {
	name := baseName(label)
	lower := strings.ToLower(name)

	for _, a := range r.aliases {
		if strings.Contains(lower, a.Match) {
			return a.Label
		}
	}

	return trimExtension(name)
}

// baseName drops directory components of either separator style
func baseName(label string) string {
	if i := strings.LastIndexAny(label, `/\`); i >= 0 {
		label = label[i+1:]
	}
	return strings.TrimSpace(label)
}

func trimExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range recognizedExtensions {
		if strings.HasSuffix(lower, ext) {
			return strings.TrimSpace(name[:len(name)-len(ext)])
		}
	}
	return name
}
