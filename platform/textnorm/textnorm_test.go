package textnorm

import (
	"reflect"
	"testing"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Lápices":        "lapices",
		"  COTIZACIÓN ":  "cotizacion",
		"Sí":             "si",
		"Nueva Sesión":   "nueva sesion",
		"cuántos llevo?": "cuantos llevo?",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestTokensSplitsPunctuation(t *testing.T) {
	got := Tokens("¡Hola! Necesito 10 lápices, y 5 cuadernos.")
	want := []string{"hola", "necesito", "10", "lapices", "y", "5", "cuadernos"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSearchWordsDropsShortTokens(t *testing.T) {
	got := SearchWords("papel de la bond A4", 2)
	want := []string{"papel", "bond"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
