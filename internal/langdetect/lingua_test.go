package langdetect

import "testing"

func TestDetectISO6391(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"too short", "ok go", ""},
		{"english", "We are looking for a backend engineer to join our growing platform team.", "en"},
		{"spanish", "Buscamos un ingeniero de software con experiencia en sistemas distribuidos.", "es"},
		{"german", "Wir suchen eine erfahrene Entwicklerin für unser Team in Berlin mit Schwerpunkt Datenbanken.", "de"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectISO6391(tc.in); got != tc.want {
				t.Fatalf("DetectISO6391(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
