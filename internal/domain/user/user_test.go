package user

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"", RoleUser, true},
		{"user", RoleUser, true},
		{" Admin ", RoleAdmin, true},
		{"root", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParseRole(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@X.com "); got != "alice@x.com" {
		t.Fatalf("got %q", got)
	}
}
