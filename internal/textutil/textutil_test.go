package textutil

import "testing"

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 9, "truncated..."},
		{"ゼルダの伝説", 3, "ゼルダ..."},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestEscapeTSV(t *testing.T) {
	if got := EscapeTSV("a\tb\nc\r"); got != `a\tb\nc\r` {
		t.Errorf("got %q", got)
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Errorf("distinct inputs share a hash")
	}
	if len(Hash(nil)) != 64 {
		t.Errorf("hash should be 64 hex chars")
	}
}
