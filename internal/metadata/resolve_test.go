package metadata_test

import (
	"reflect"
	"strings"
	"testing"

	"archivist/internal/config"
	"archivist/internal/metadata"
	"archivist/internal/tabular"
)

func newResolver() *metadata.Resolver {
	return metadata.NewResolverFromConfig(nil)
}

func record(values map[string]string) tabular.Record {
	return tabular.NewRecord(1, values)
}

func TestResolveConcatenatesInPrecedenceOrder(t *testing.T) {
	rec := record(map[string]string{
		"Title":                     "Main",
		"Alternative Title":         "",
		"Event title":               "Opening Night",
		"PFA film series":           "Series; ",
		"Subject(s): Film title(s)": "Alpha|Beta",
		"Subject(s): Names":         "Someone",
	})

	res := newResolver().Resolve(rec)
	if res.Title != "Main; Opening Night; Series" {
		t.Fatalf("title = %q", res.Title)
	}
	if res.Subject != "Alpha; Beta; Someone" {
		t.Fatalf("subject = %q", res.Subject)
	}
}

func TestResolveConcatenatedFieldsNeverEndWithSeparator(t *testing.T) {
	inputs := []map[string]string{
		{"Title": "A; "},
		{"Title": "A", "Event series": "; "},
		{"Subject(s): Film title(s)": "A|", "Subject(s): Topics(s)": ""},
		{"Description": "Notes;"},
	}
	resolver := newResolver()
	for _, values := range inputs {
		res := resolver.Resolve(record(values))
		for name, value := range map[string]string{"title": res.Title, "subject": res.Subject, "description": res.Description} {
			if strings.HasSuffix(value, metadata.Separator) || strings.HasSuffix(value, ";") {
				t.Fatalf("%s ends with separator: %q (input %v)", name, value, values)
			}
		}
	}
}

func TestResolveCreatorSplitsMultiValueColumns(t *testing.T) {
	rec := record(map[string]string{
		"Directors / Filmmakers": "Jane Doe|John Roe",
		"Speaker/Interviewee":    " Ann Poe ",
		"Creator":                "None",
	})
	res := newResolver().Resolve(rec)
	want := []string{"Jane Doe", "John Roe", "Ann Poe"}
	if !reflect.DeepEqual(res.Creator, want) {
		t.Fatalf("creator = %q, want %q", res.Creator, want)
	}
}

func TestResolveDateUsesFirstNonEmpty(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{name: "release wins", values: map[string]string{"Release Date": "1971", "Date": "1999"}, want: "1971"},
		{name: "skips empty and markers", values: map[string]string{"Release Date": " ", "Date of recording": "N/A", "Event year": "1985", "Date": "1999"}, want: "1985"},
		{name: "last resort", values: map[string]string{"Date": "2001-02-03"}, want: "2001-02-03"},
		{name: "none", values: map[string]string{}, want: ""},
	}
	resolver := newResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Resolve(record(tt.values)).Date; got != tt.want {
				t.Fatalf("date = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveIdentifierFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		values   map[string]string
		want     string
		degraded bool
	}{
		{name: "canonical name", values: map[string]string{"Source canonical name": "pfa_1", "Access copy filename": "other.mov"}, want: "pfa_1"},
		{name: "strip extension", values: map[string]string{"Source canonical name": "", "Access copy filename": "reel12.mov"}, want: "reel12", degraded: true},
		{name: "lowercase filename column", values: map[string]string{"filename": "x_00042_v1.mp4"}, want: "x_00042_v1", degraded: true},
		{name: "no stem", values: map[string]string{"Access copy filename": ".mov"}, want: ".mov", degraded: true},
		{name: "missing columns", values: map[string]string{"Title": "x"}, want: "", degraded: true},
	}
	resolver := newResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolver.Resolve(record(tt.values))
			if res.Identifier != tt.want {
				t.Fatalf("identifier = %q, want %q", res.Identifier, tt.want)
			}
			if res.IsDegraded() != tt.degraded {
				t.Fatalf("degraded = %v (%q), want %v", res.IsDegraded(), res.Degraded, tt.degraded)
			}
		})
	}
}

func TestResolveIsDeterministicAndDoesNotMutate(t *testing.T) {
	values := map[string]string{
		"Title":                 "Test Reel",
		"Directors/Filmmakers":  "Jane Doe|John Roe",
		"Access copy filename":  "reel12.mov",
		"Subject(s): Topics(s)": "Film|History",
		"Resource ID(s)":        "42",
	}
	rec := record(values)
	resolver := newResolver()
	first := resolver.Resolve(rec)
	second := resolver.Resolve(rec)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolve not deterministic: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(rec.Values(), values) {
		t.Fatalf("record mutated: %v", rec.Values())
	}
	if first.AssetID != "42" {
		t.Fatalf("asset id = %q", first.AssetID)
	}
}

func TestRulesFromConfigOverridesAndExtends(t *testing.T) {
	rules := metadata.RulesFromConfig([]config.FieldRule{
		{Name: "Date", Strategy: "first", Columns: []string{"Year"}},
		{Name: "series", Strategy: "CONCAT", Columns: []string{"Event series", "PFA film series"}},
	})
	resolver := metadata.NewResolver(rules, []string{"none"})
	res := resolver.Resolve(record(map[string]string{
		"Release Date":    "1971",
		"Year":            "1972",
		"Event series":    "Fall",
		"PFA film series": "None",
	}))
	if res.Date != "1972" {
		t.Fatalf("expected override to replace date rule, got %q", res.Date)
	}
	if res.Extra["series"] != "Fall" {
		t.Fatalf("expected extra series field, got %v", res.Extra)
	}
}
