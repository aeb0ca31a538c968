package core

import "testing"

func TestLoginMethod(t *testing.T) {
	cases := []struct {
		subject string
		hosted  bool
		want    string
	}{
		{"google|12345", true, "google"},
		{"auth0|abc", true, "auth0"},
		{"no-separator", true, "unknown"},
		{"|leading", true, "unknown"},
		{"google|12345", false, "local"},
		{"", false, "local"},
	}
	for _, tc := range cases {
		if got := LoginMethod(tc.subject, tc.hosted); got != tc.want {
			t.Errorf("LoginMethod(%q, %v) = %q, want %q", tc.subject, tc.hosted, got, tc.want)
		}
	}
}
