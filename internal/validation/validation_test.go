package validation

import (
	"strings"
	"testing"
)

func TestValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"valid with uppercase and special", "Abcdef1!", true},
		{"valid at max length", "Abcdefghijklmn1!", true},
		{"no uppercase", "abcdefgh", false},
		{"no special character", "ABCDEFG1", false},
		{"too short", "Ab1!", false},
		{"too long", "Abcdefghijklmno1!", false},
		{"disallowed character", "Abcdef1! ", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidPassword(tt.password); got != tt.want {
				t.Errorf("ValidPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestValidUserName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"exactly 20 chars", strings.Repeat("a", 20), true},
		{"exactly 60 chars", strings.Repeat("a", 60), true},
		{"19 chars", strings.Repeat("a", 19), false},
		{"61 chars", strings.Repeat("a", 61), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidUserName(tt.input); got != tt.want {
				t.Errorf("ValidUserName(%d chars) = %v, want %v", len(tt.input), got, tt.want)
			}
		})
	}
}

func TestValidStoreName(t *testing.T) {
	if !ValidStoreName("Corner") {
		t.Error("expected 6-char store name to be valid")
	}
	if ValidStoreName("Shop") {
		t.Error("expected 4-char store name to be invalid")
	}
	if ValidStoreName(strings.Repeat("a", 61)) {
		t.Error("expected 61-char store name to be invalid")
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"a@b.co", true},
		{"no-at-sign", false},
		{"missing@domain", false},
		{"spaces in@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestValidAddress(t *testing.T) {
	if !ValidAddress("123 Main Street") {
		t.Error("expected address to be valid")
	}
	if ValidAddress("") {
		t.Error("expected empty address to be invalid")
	}
	if ValidAddress(strings.Repeat("a", 401)) {
		t.Error("expected 401-char address to be invalid")
	}
	if !ValidAddress(strings.Repeat("a", 400)) {
		t.Error("expected 400-char address to be valid")
	}
}

func TestUserCollectsAllViolations(t *testing.T) {
	password := "bad"
	errs := User("short", "not-an-email", "", &password)
	if len(errs) != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", len(errs), errs)
	}

	found := map[string]bool{}
	for _, e := range errs {
		found[e] = true
	}
	for _, want := range []string{MsgUserName, MsgEmail, MsgPassword, MsgAddress} {
		if !found[want] {
			t.Errorf("missing violation %q", want)
		}
	}
}

func TestUserSkipsPasswordWhenNil(t *testing.T) {
	errs := User(strings.Repeat("a", 25), "user@example.com", "somewhere", nil)
	if len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}
}

func TestStore(t *testing.T) {
	errs := Store("Corner Store", "store@example.com", "1 Market Square")
	if len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}

	errs = Store("Shop", "bad", "")
	if len(errs) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(errs), errs)
	}
}

func TestValidRating(t *testing.T) {
	for _, v := range []int{1, 2, 3, 4, 5} {
		if !ValidRating(v) {
			t.Errorf("expected rating %d to be valid", v)
		}
	}
	for _, v := range []int{0, 6, -1, 100} {
		if ValidRating(v) {
			t.Errorf("expected rating %d to be invalid", v)
		}
	}
}
