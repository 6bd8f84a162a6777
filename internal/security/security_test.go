package security

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Plain", input: "Stage 2", want: "Stage 2"},
		{name: "Whitespace", input: "  Stage 2 \n", want: "Stage 2"},
		{name: "Script tag", input: "<script>alert(1)</script>Stage", want: "Stage"},
		{name: "Null byte", input: "Sta\x00ge", want: "Stage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	long := strings.Repeat("a", 500)
	if got := SanitizeText(long); len(got) != maxTextLength {
		t.Errorf("len(SanitizeText(long)) = %d, want %d", len(got), maxTextLength)
	}

	split := strings.Repeat("a", maxTextLength-1) + "é"
	got := SanitizeText(split)
	if !utf8.ValidString(got) {
		t.Fatalf("SanitizeText() returned invalid UTF-8: %q", got)
	}
	if want := strings.Repeat("a", maxTextLength-1); got != want {
		t.Errorf("SanitizeText(split) has len %d, want %d", len(got), len(want))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "Short", input: "abc", max: 5, want: "abc"},
		{name: "Exact", input: "abc", max: 3, want: "abc"},
		{name: "ASCII cut", input: "abcdef", max: 4, want: "abcd"},
		{name: "Two byte rune", input: "aé", max: 2, want: "a"},
		{name: "Four byte rune", input: "ab😀", max: 5, want: "ab"},
		{name: "Rune fits", input: "ab😀c", max: 6, want: "ab😀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate(%q, %d) is not valid UTF-8", tt.input, tt.max)
			}
		})
	}
}

func TestSanitizeSearch(t *testing.T) {
	if got := SanitizeSearch(" w1\x00\t "); got != "w1" {
		t.Errorf("SanitizeSearch() = %q, want %q", got, "w1")
	}
}

func TestAddressValidator(t *testing.T) {
	const rawTON = "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"

	tests := []struct {
		name    string
		format  string
		wallet  string
		wantErr bool
	}{
		{name: "Any format accepts opaque id", format: "any", wallet: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"},
		{name: "Empty", format: "any", wallet: "", wantErr: true},
		{name: "Whitespace", format: "any", wallet: "W 1", wantErr: true},
		{name: "Too long", format: "any", wallet: strings.Repeat("x", 129), wantErr: true},
		{name: "Default format", format: "", wallet: "W1"},
		{name: "TON raw address", format: "ton", wallet: rawTON},
		{name: "TON rejects garbage", format: "ton", wallet: "W1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAddressValidator(tt.format).Validate(tt.wallet)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.wallet, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFile(t *testing.T) {
	allowed := []string{".png", ".svg"}
	if !ValidateFileType("Logo.PNG", allowed) {
		t.Error("ValidateFileType(Logo.PNG) = false")
	}
	if ValidateFileType("logo.exe", allowed) {
		t.Error("ValidateFileType(logo.exe) = true")
	}
	if ValidateFileSize(0, 10) || !ValidateFileSize(10, 10) || ValidateFileSize(11, 10) {
		t.Error("ValidateFileSize bounds are wrong")
	}
}
