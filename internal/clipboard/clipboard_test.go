package clipboard

import "testing"

func TestQuotePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`C:\Users\me\Pictures\Screenshots\20240101_120000.png`, `"C:\Users\me\Pictures\Screenshots\20240101_120000.png"`},
		{"/home/me/Pictures/with space.png", `"/home/me/Pictures/with space.png"`},
		{"", `""`},
	}
	for _, tt := range tests {
		if got := QuotePath(tt.in); got != tt.want {
			t.Errorf("QuotePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
