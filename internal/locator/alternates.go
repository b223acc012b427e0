package locator

import (
	"fmt"
	"strings"

	"archivist/internal/services"
)

// Alternate is one alternate-file descriptor returned by the DAM.
type Alternate struct {
	Ref       string
	Extension string
}

const (
	refKey       = "ref"
	extensionKey = "file_extension"
)

// descriptorKeys are the fields the DAM serialises for an alternate file.
var descriptorKeys = map[string]bool{
	refKey:          true,
	extensionKey:    true,
	"resource":      true,
	"name":          true,
	"description":   true,
	"file_name":     true,
	"file_size":     true,
	"creation_date": true,
	"alt_type":      true,
	"page_count":    true,
}

// ParseAlternates extracts (ref, extension) pairs from a descriptor blob.
//
// The blob looks like `[{ref:12,name:...,file_extension:wav},{...}]` once the
// transport has stripped quoting. Refs and extensions are collected
// independently in order of appearance and paired positionally. A key:value
// token only counts at the start of an object or when it names a descriptor
// key the object has not set yet; anything else is text from the previous
// value that happened to contain a comma. An empty blob
// or an empty list yields no alternates. Unbalanced delimiters and unexpected
// token shapes fail with services.ErrAlternateMalformed; differing counts fail
// with services.ErrAlternateMismatch.
func ParseAlternates(blob string) ([]Alternate, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" || blob == "[]" || blob == "{}" {
		return nil, nil
	}
	if blob[0] != '[' && blob[0] != '{' {
		return nil, malformed("descriptor is not a list", blob)
	}

	var refs, exts []string
	var token strings.Builder
	var stack []byte
	fields := make(map[string]bool)
	objectStart := false

	flush := func() error {
		raw := strings.TrimSpace(token.String())
		token.Reset()
		if raw == "" {
			return nil
		}
		defer func() { objectStart = false }()
		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			// Free text split by a comma inside a value.
			return nil
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !objectStart && (!descriptorKeys[key] || fields[key]) {
			return nil
		}
		fields[key] = true
		switch key {
		case refKey:
			if !isDigits(value) {
				return malformed(fmt.Sprintf("ref %q is not numeric", value), blob)
			}
			refs = append(refs, value)
		case extensionKey:
			if !isExtension(value) {
				return malformed(fmt.Sprintf("file_extension %q is invalid", value), blob)
			}
			exts = append(exts, strings.ToLower(value))
		}
		return nil
	}

	for i := 0; i < len(blob); i++ {
		c := blob[i]
		switch c {
		case '[', '{':
			if err := flush(); err != nil {
				return nil, err
			}
			stack = append(stack, c)
			if c == '{' {
				clear(fields)
				objectStart = true
			}
		case ']', '}':
			if err := flush(); err != nil {
				return nil, err
			}
			if len(stack) == 0 || !matches(stack[len(stack)-1], c) {
				return nil, malformed("unbalanced delimiters", blob)
			}
			stack = stack[:len(stack)-1]
		case ',':
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			token.WriteByte(c)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(stack) != 0 {
		return nil, malformed("unterminated list", blob)
	}

	if len(refs) != len(exts) {
		return nil, services.Wrap(services.ErrAlternateMismatch, "locating", "parse alternates",
			fmt.Sprintf("%d refs but %d extensions", len(refs), len(exts)), nil)
	}
	if len(refs) == 0 {
		return nil, nil
	}
	alternates := make([]Alternate, len(refs))
	for i := range refs {
		alternates[i] = Alternate{Ref: refs[i], Extension: exts[i]}
	}
	return alternates, nil
}

func malformed(reason, blob string) error {
	const maxExcerpt = 80
	excerpt := blob
	if len(excerpt) > maxExcerpt {
		excerpt = excerpt[:maxExcerpt] + "..."
	}
	return services.Wrap(services.ErrAlternateMalformed, "locating", "parse alternates", fmt.Sprintf("%s: %q", reason, excerpt), nil)
}

func matches(open, close byte) bool {
	return (open == '[' && close == ']') || (open == '{' && close == '}')
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isExtension(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
