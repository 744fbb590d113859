package utils

import "testing"

func TestIsValidParticipantCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want bool
	}{
		{"p-01", true},
		{"SITE_A_007", true},
		{"", false},
		{"has space", false},
		{"ünïcode", false},
		{"semi;colon", false},
		{string(make([]byte, 65)), false},
	}
	for _, tt := range tests {
		if got := IsValidParticipantCode(tt.code); got != tt.want {
			t.Errorf("IsValidParticipantCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestIsComplexPassword(t *testing.T) {
	t.Parallel()

	if IsComplexPassword("short1!") {
		t.Error("short password accepted")
	}
	if IsComplexPassword("alllowercase1!") {
		t.Error("password without uppercase accepted")
	}
	if !IsComplexPassword("Research-2026!") {
		t.Error("complex password rejected")
	}
}

func TestGenerateSecureTokenIsUnique(t *testing.T) {
	t.Parallel()

	a, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := GenerateSecureToken(32)
	if a == b || len(a) != 44 {
		t.Fatalf("tokens %q and %q", a, b)
	}
}
