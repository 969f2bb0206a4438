package theme

import "testing"

func TestModeColorPerMode(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"survival":    string(Red),
		"maintenance": string(Yellow),
		"expansion":   string(Green),
		"":            string(Subtext0),
	}
	for mode, want := range cases {
		if got := string(ModeColor(mode)); got != want {
			t.Fatalf("ModeColor(%q) = %s, want %s", mode, got, want)
		}
	}
}
