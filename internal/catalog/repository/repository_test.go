package repository

import (
	"strings"
	"testing"
)

func TestBuildSearchQueryRequiresEveryWord(t *testing.T) {
	query, args, ok := buildSearchQuery(SearchParams{Query: "Lápices de Mongol", Limit: 3})
	if !ok {
		t.Fatal("expected a query")
	}

	// "de" is too short to search on.
	if len(args) != 3 {
		t.Fatalf("expected 2 word args plus limit, got %v", args)
	}
	if args[0] != "%lapices%" || args[1] != "%mongol%" {
		t.Fatalf("expected folded word patterns, got %v", args[:2])
	}
	if args[2] != 3 {
		t.Fatalf("expected limit 3, got %v", args[2])
	}

	lower := strings.ToLower(query)
	for _, fragment := range []string{
		"active = true",
		"name_search like $1 or description_search like $1 or lower(sku) like $1",
		"name_search like $2",
		"order by (stock_quantity > 0) desc, name asc",
		"limit $3",
	} {
		if !strings.Contains(lower, fragment) {
			t.Fatalf("expected query fragment %q in %s", fragment, query)
		}
	}
	if strings.Contains(lower, "stock_quantity > 0 and") {
		t.Fatal("plain search should not filter on stock")
	}
}

func TestBuildSearchQueryOnlyAvailable(t *testing.T) {
	query, _, ok := buildSearchQuery(SearchParams{Query: "papel bond", OnlyAvailable: true})
	if !ok {
		t.Fatal("expected a query")
	}
	if !strings.Contains(query, "AND stock_quantity > 0 AND") {
		t.Fatalf("expected stock filter, got %s", query)
	}
	if !strings.Contains(query, "LIMIT $3") {
		t.Fatalf("expected default limit placeholder, got %s", query)
	}
}

func TestBuildSearchQueryWithoutWords(t *testing.T) {
	for _, q := range []string{"", "  ", "de la", "a"} {
		if _, _, ok := buildSearchQuery(SearchParams{Query: q}); ok {
			t.Fatalf("expected no query for %q", q)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`100%_x\`); got != `100\%\_x\\` {
		t.Fatalf("unexpected escape result %q", got)
	}
}
