package password

import "testing"

func TestPolicyLength(t *testing.T) {
	policy := NewPolicy(10, 1)

	if err := policy("short1!"); err == nil {
		t.Fatal("expected length rejection")
	}
	if err := policy("long-enough-password"); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
}

func TestPolicyCharacterClasses(t *testing.T) {
	policy := NewPolicy(8, 3)

	cases := []struct {
		password string
		valid    bool
	}{
		{"alllowercase", false},
		{"lowerUPPER", false},
		{"lowerUPPER1", true},
		{"lower-and-symbols!1", true},
		{"Abcdef1!", true},
	}
	for _, tc := range cases {
		err := policy(tc.password)
		if tc.valid && err != nil {
			t.Fatalf("%q: unexpected rejection: %v", tc.password, err)
		}
		if !tc.valid && err == nil {
			t.Fatalf("%q: expected rejection", tc.password)
		}
	}
}
