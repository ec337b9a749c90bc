package memorytag

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		doc    string
	}{
		{"plain", "El contrato es válido.", "CONTRATO DE ARRENDAMIENTO\nFirmado por ambas partes."},
		{"multiline doc", "Resumen listo.", "línea 1\nlínea 2\n\nlínea 4"},
		{"empty doc still wraps", "Hola, ¿en qué puedo ayudarte?", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Encode(tt.answer, tt.doc)

			visible, doc := Decode(wrapped)
			if visible != tt.answer {
				t.Errorf("visible = %q, want %q", visible, tt.answer)
			}
			if doc != strings.TrimSpace(tt.doc) {
				t.Errorf("doc = %q, want %q", doc, tt.doc)
			}

			if got := Strip(wrapped); got != tt.answer {
				t.Errorf("Strip = %q, want %q", got, tt.answer)
			}
		})
	}
}

func TestDecodeWithoutMarkers(t *testing.T) {
	content := "respuesta sin memoria"

	visible, doc := Decode(content)
	if visible != content {
		t.Errorf("visible = %q, want unchanged content", visible)
	}
	if doc != "" {
		t.Errorf("doc = %q, want empty", doc)
	}
}

func TestStripIsIdentityWithoutMarkers(t *testing.T) {
	content := "texto normal\ncon líneas"
	if got := Strip(content); got != content {
		t.Errorf("Strip = %q, want %q", got, content)
	}
	if got := Strip(""); got != "" {
		t.Errorf("Strip(\"\") = %q, want empty", got)
	}
}

func TestStripRemovesMultilineWrapper(t *testing.T) {
	content := "respuesta\n" + TagStart + "doc\ncon\nsaltos" + TagEnd
	if got := Strip(content); got != "respuesta" {
		t.Errorf("Strip = %q, want %q", got, "respuesta")
	}
}

func TestTruncate(t *testing.T) {
	short := strings.Repeat("a", 100)
	if got := Truncate(short, 100); got != short {
		t.Errorf("text at budget should pass unchanged")
	}

	long := strings.Repeat("x", 50) + strings.Repeat("y", 100)
	got := Truncate(long, 100)
	if len(got) != 100 {
		t.Fatalf("len = %d, want 100", len(got))
	}
	if got != strings.Repeat("y", 100) {
		t.Errorf("truncation must keep the tail")
	}

	if got := Truncate("", 10); got != "" {
		t.Errorf("Truncate(\"\") = %q, want empty", got)
	}
}

func TestTruncateCountsCharactersNotBytes(t *testing.T) {
	accented := strings.Repeat("á", 30) // 2 bytes per rune

	got := Truncate(accented, 20)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 20 {
		t.Errorf("kept %d characters, want 20", n)
	}
	if got != strings.Repeat("á", 20) {
		t.Errorf("truncation must keep whole tail characters, got %q", got)
	}

	// A budget cut that would land mid-rune byte-wise must still yield
	// valid text.
	mixed := "totales: 1.234,56€ firmado en Madrid, cláusula final"
	for budget := 1; budget < utf8.RuneCountInString(mixed); budget++ {
		out := Truncate(mixed, budget)
		if !utf8.ValidString(out) {
			t.Fatalf("budget %d produced invalid UTF-8: %q", budget, out)
		}
		if n := utf8.RuneCountInString(out); n != budget {
			t.Errorf("budget %d kept %d characters", budget, n)
		}
	}

	if got := Truncate(accented, 30); got != accented {
		t.Errorf("text at character budget should pass unchanged")
	}
}
