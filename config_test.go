package shmq

import "testing"

func TestParseSize(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"4KB", 4 * 1024, false},
		{"4K", 4 * 1024, false},
		{"1MB", 1024 * 1024, false},
		{"1mb", 1024 * 1024, false},
		{"2GB", 2 * 1024 * 1024 * 1024, false},
		{"", 0, true},
		{"4XB", 0, true},
		{"abcKB", 0, true},
	}
	for _, c := range cases {
		got, err := ParseSize(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseSize(%q) = %d, want error", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSize(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
