package phone

import "testing"

func TestCleanWhatsAppMX(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5215512345678", "5215512345678"},
		{"525512345678", "5215512345678"},
		{"5512345678", "5215512345678"},
		{"55 1234 5678", "5215512345678"},
		{"(55) 1234-5678", "5215512345678"},
		{"12345", "12345"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := CleanWhatsAppMX(tc.in); got != tc.want {
			t.Fatalf("CleanWhatsAppMX(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
