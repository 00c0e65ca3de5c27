package pdf

import "testing"

func TestFilename(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Rent Agreement", "Rent_Agreement.pdf"},
		{"  Partnership   Deed  ", "Partnership_Deed.pdf"},
		{"Invoice", "Invoice.pdf"},
		{"", "document.pdf"},
		{"   ", "document.pdf"},
	}
	for _, tc := range cases {
		if got := Filename(tc.name); got != tc.want {
			t.Errorf("Filename(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
