// Package naming converts between the identifier styles used by resource
// schemas (snake_case, PascalCase) and GraphQL (camelCase fields, PascalCase
// types), and pluralizes entity names for list queries.
package naming

import (
	"strings"
	"unicode"
)

// CamelCase converts snake_case or PascalCase to camelCase.
// Examples: first_name → firstName, BlogPost → blogPost, author_id → authorId, ID → id
func CamelCase(s string) string {
	if s == "" {
		return ""
	}

	if strings.Contains(s, "_") {
		parts := strings.Split(s, "_")
		var b strings.Builder
		for _, part := range parts {
			if part == "" {
				continue
			}
			if b.Len() == 0 {
				b.WriteString(strings.ToLower(part))
				continue
			}
			b.WriteString(strings.ToUpper(part[:1]) + strings.ToLower(part[1:]))
		}
		return b.String()
	}

	// All-caps acronyms collapse entirely: "ID" → "id", "URL" → "url"
	if strings.ToUpper(s) == s {
		return strings.ToLower(s)
	}

	// Leading acronym: "HTTPServer" → "httpServer"
	runes := []rune(s)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	switch {
	case i == 0:
		return s
	case i == 1:
		runes[0] = unicode.ToLower(runes[0])
	default:
		// keep the last capital, it starts the next word
		for j := 0; j < i-1; j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
	}
	return string(runes)
}

// PascalCase converts snake_case or camelCase to PascalCase.
// Examples: blog_post → BlogPost, author → Author
func PascalCase(s string) string {
	if s == "" {
		return ""
	}

	if strings.Contains(s, "_") {
		parts := strings.Split(s, "_")
		for i, part := range parts {
			if part != "" {
				parts[i] = strings.ToUpper(part[:1]) + part[1:]
			}
		}
		return strings.Join(parts, "")
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// SnakeCase converts PascalCase or camelCase to snake_case.
// Examples: UserName → user_name, HTTPServer → http_server
func SnakeCase(s string) string {
	if s == "" {
		return ""
	}

	if strings.Contains(s, "_") {
		return strings.ToLower(s)
	}

	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			// Underscore before an upper-case letter that follows a lower-case
			// one, or that ends an acronym ("HTTPServer" → "http_server").
			if i > 0 {
				prev := rune(s[i-1])
				if unicode.IsLower(prev) {
					result.WriteRune('_')
				} else if i+1 < len(s) && unicode.IsLower(rune(s[i+1])) {
					result.WriteRune('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Pluralize converts singular nouns to plural form using common English rules
func Pluralize(word string) string {
	if word == "" {
		return ""
	}

	lower := strings.ToLower(word)

	irregulars := map[string]string{
		"person": "people",
		"child":  "children",
		"woman":  "women",
		"mouse":  "mice",
	}
	for singular, plural := range irregulars {
		if strings.HasSuffix(lower, singular) {
			prefix := word[:len(word)-len(singular)]
			return prefix + preserveCase(word[len(prefix):], plural)
		}
	}

	switch {
	case strings.HasSuffix(lower, "s"),
		strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "sh"):
		return word + "es"
	case strings.HasSuffix(lower, "y") && len(word) > 1 && !isVowel(lower[len(lower)-2]):
		return word[:len(word)-1] + "ies"
	default:
		return word + "s"
	}
}

// preserveCase applies the case pattern from original to the plural form
func preserveCase(original, plural string) string {
	if original == "" {
		return plural
	}
	if unicode.IsUpper(rune(original[0])) {
		return strings.ToUpper(plural[:1]) + plural[1:]
	}
	return plural
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
