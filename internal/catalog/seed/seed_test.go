package seed

import "testing"

func TestDefaultSeedCoversFallbackSKUs(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := make(map[string]Product, len(f.Products))
	for _, p := range f.Products {
		got[p.SKU] = p
	}

	want := map[string]int64{
		"LAP-MONGOL-2":     850,
		"PAP-BOND-A4":      275,
		"CUA-PROF-100":     550,
		"FOL-MANILA-CARTA": 3500,
		"PLU-BIC-CRISTAL":  4500,
		"CAL-CASIO-FX991":  28500,
	}
	for sku, price := range want {
		p, ok := got[sku]
		if !ok {
			t.Fatalf("expected seed to contain %s", sku)
		}
		if p.PriceCents != price {
			t.Fatalf("%s: expected price %d, got %d", sku, price, p.PriceCents)
		}
	}
	if len(f.Users) == 0 {
		t.Fatal("expected at least one seeded user")
	}
}

func TestParseRejectsDuplicateSKU(t *testing.T) {
	data := []byte(`
products:
  - {sku: A, name: Uno, price_cents: 1}
  - {sku: A, name: Dos, price_cents: 2}
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected duplicate sku error")
	}
}

func TestParseRejectsNegativePrice(t *testing.T) {
	if _, err := Parse([]byte("products:\n  - {sku: A, name: Uno, price_cents: -5}\n")); err == nil {
		t.Fatal("expected negative price error")
	}
}

func TestParseRejectsUserWithoutPhone(t *testing.T) {
	if _, err := Parse([]byte("users:\n  - {name: Ana}\n")); err == nil {
		t.Fatal("expected missing phone error")
	}
}
