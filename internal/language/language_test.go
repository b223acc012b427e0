package language

import (
	"reflect"
	"testing"
)

func TestToMARC(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"en", "eng", true},
		{"eng", "eng", true},
		{"English", "eng", true},
		{" french ", "fre", true},
		{"fra", "fre", true},
		{"de", "ger", true},
		{"Mandarin", "chi", true},
		{"zh", "chi", true},
		{"sw", "swa", true},
		{"yue", "yue", true},
		{"Klingon", "", false},
		{"", "", false},
		{"q1", "", false},
	}
	for _, tt := range tests {
		got, ok := ToMARC(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ToMARC(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single name", "English", []string{"eng"}},
		{"mixed separators", "English; French, de / Tagalog", []string{"eng", "fre", "ger", "tgl"}},
		{"duplicates collapse", "en; English; eng", []string{"eng"}},
		{"unknown kept", "English; Ohlone", []string{"eng", "Ohlone"}},
		{"empty", " ; ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Normalize(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("ger"); got != "German" {
		t.Fatalf("DisplayName(ger) = %q", got)
	}
	if got := DisplayName(" Ohlone "); got != "Ohlone" {
		t.Fatalf("DisplayName passthrough = %q", got)
	}
}
