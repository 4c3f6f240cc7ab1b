package cmd

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"search dial", []string{"search", "dial"}},
		{"search  dial\ttimeout", []string{"search", "dial", "timeout"}},
		{`search "connection refused"`, []string{"search", "connection refused"}},
		{`search 'single quoted'`, []string{"search", "single quoted"}},
		{`search "outer 'inner'"`, []string{"search", "outer 'inner'"}},
		{`notify photo\ album.jpg`, []string{"notify", "photo album.jpg"}},
		{"search level:error dial", []string{"search", "level:error", "dial"}},
	}

	for _, tt := range tests {
		got, err := Split(tt.line)
		if err != nil {
			t.Errorf("Split(%q) returned error: %v", tt.line, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Split(%q) = %#v, want %#v", tt.line, got, tt.want)
		}
	}
}

func TestSplitUnterminatedQuote(t *testing.T) {
	for _, line := range []string{`search "dial`, `search 'dial`} {
		if _, err := Split(line); err == nil {
			t.Errorf("Split(%q) expected error, got nil", line)
		}
	}
}
