package instrumentation

import "testing"

func TestExtractSenderDomain(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"regular address", "jane@example.com", "example.com"},
		{"gmail address", "user@gmail.com", "gmail.com"},
		{"missing at sign", "invalid", "unknown"},
		{"empty string", "", "unknown"},
		{"trailing at sign", "user@", "unknown"},
		{"two at signs", "a@b@c", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSenderDomain(tt.email); got != tt.want {
				t.Errorf("ExtractSenderDomain(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}
