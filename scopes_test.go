package basic

import (
	"reflect"
	"testing"
)

func TestParseScopes(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"profile", []string{"profile"}},
		{"profile read write", []string{"profile", "read", "write"}},
		{"read  read profile", []string{"read", "profile"}},
	}
	for _, tt := range tests {
		if got := ParseScopes(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseScopes(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJoinScopes(t *testing.T) {
	if got := JoinScopes(DefaultScopes()); got != "profile read write" {
		t.Errorf("JoinScopes(DefaultScopes()) = %q", got)
	}
}
