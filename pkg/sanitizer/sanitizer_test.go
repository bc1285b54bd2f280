package sanitizer

import (
	"reflect"
	"testing"
)

func TestSanitizeCityOrLabel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Tel Aviv", "tel_aviv"},
		{"  New   York  ", "new_york"},
		{"sea-view suite", "sea_view_suite"},
		{"DELUXE!!", "deluxe"},
		{"room 42", "room_42"},
		{"___", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeCityOrLabel(tt.input); got != tt.want {
			t.Errorf("SanitizeCityOrLabel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeCityOrLabel_Idempotent(t *testing.T) {
	once := SanitizeCityOrLabel("Sea-View Suite")
	twice := SanitizeCityOrLabel(once)
	if once != twice {
		t.Errorf("not idempotent: %q != %q", once, twice)
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Grand   Plaza  ", "Grand Plaza"},
		{"Grand\tPlaza", "Grand Plaza"},
		{"Grand\n\nPlaza", "Grand Plaza"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := TrimAndNormalize(tt.input); got != tt.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeSlice(t *testing.T) {
	got := SanitizeSlice([]string{"Tel Aviv", "tel aviv", "", "Haifa"}, SanitizeCityOrLabel)
	want := []string{"tel_aviv", "haifa"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeSlice() = %v, want %v", got, want)
	}
}
