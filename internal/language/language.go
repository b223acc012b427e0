package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2/T
	marc    string   // ISO 639-2/B where it differs from /T
	display string   // English name
	words   []string // other spellings seen in catalogue exports
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "castilian", "español"}},
	{"fr", "fra", "fre", "French", []string{"french", "français"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin", "cantonese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch", "flemish"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"cs", "ces", "cze", "Czech", []string{"czech"}},
	{"el", "ell", "gre", "Greek", []string{"greek", "modern greek"}},
	{"fa", "fas", "per", "Persian", []string{"persian", "farsi"}},
	{"tl", "tgl", "", "Tagalog", []string{"tagalog", "filipino"}},
	{"vi", "vie", "", "Vietnamese", []string{"vietnamese"}},
	{"he", "heb", "", "Hebrew", []string{"hebrew"}},
	{"hu", "hun", "", "Hungarian", []string{"hungarian"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
}

var (
	byCode map[string]*entry
	byWord map[string]*entry
)

func init() {
	byCode = make(map[string]*entry, len(languages)*3)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode[e.code2] = e
		byCode[e.code3] = e
		if e.marc != "" {
			byCode[e.marc] = e
		}
		byWord[strings.ToLower(e.display)] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func (e *entry) marcCode() string {
	if e.marc != "" {
		return e.marc
	}
	return e.code3
}

func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	if e, ok := byCode[value]; ok {
		return e
	}
	if e, ok := byWord[value]; ok {
		return e
	}
	return nil
}

// ToMARC converts a language name or ISO 639 code to its MARC code. ok is
// false when the value is not recognized.
func ToMARC(value string) (code string, ok bool) {
	if e := lookup(value); e != nil {
		return e.marcCode(), true
	}
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != 2 && len(trimmed) != 3 {
		return "", false
	}
	base, err := xlanguage.ParseBase(strings.ToLower(trimmed))
	if err != nil {
		return "", false
	}
	if e := lookup(base.String()); e != nil {
		return e.marcCode(), true
	}
	return base.ISO3(), true
}

// DisplayName returns the English name for a recognized value, or the value
// itself.
func DisplayName(value string) string {
	if e := lookup(value); e != nil {
		return e.display
	}
	return strings.TrimSpace(value)
}

// Normalize splits a catalogue cell on ";", "," and "/" and converts each
// part to its MARC code. Unrecognized parts are kept verbatim; duplicates
// are dropped and order is preserved.
func Normalize(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ';' || r == ',' || r == '/' || r == '|'
	})
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value := part
		if code, ok := ToMARC(part); ok {
			value = code
		}
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}
