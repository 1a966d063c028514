package db

import (
	"strings"
	"testing"
)

func TestBuildRestaurantFilter_NoParams(t *testing.T) {
	where, args := buildRestaurantFilter(ListParams{})

	if where != "WHERE 1=1" {
		t.Fatalf("expected bare filter, got %q", where)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestBuildRestaurantFilter_CityOnly(t *testing.T) {
	where, args := buildRestaurantFilter(ListParams{City: "Sunnyvale"})

	if !strings.Contains(where, "c.name = $1") {
		t.Fatalf("filter missing city constraint: %s", where)
	}
	if len(args) != 1 || args[0] != "Sunnyvale" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildRestaurantFilter_CityAndQuery(t *testing.T) {
	where, args := buildRestaurantFilter(ListParams{City: "Sunnyvale", Query: "taqueria"})

	mustContain := []string{
		"c.name = $1",
		"r.name ILIKE '%' || $2 || '%'",
		"r.address ILIKE '%' || $2 || '%'",
	}
	for _, token := range mustContain {
		if !strings.Contains(where, token) {
			t.Fatalf("filter missing token %q: %s", token, where)
		}
	}

	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %v", args)
	}
	if args[0] != "Sunnyvale" || args[1] != "taqueria" {
		t.Fatalf("args out of order: %v", args)
	}
}

func TestBuildRestaurantFilter_QueryOnlyUsesFirstPlaceholder(t *testing.T) {
	where, args := buildRestaurantFilter(ListParams{Query: "pho"})

	if strings.Contains(where, "$2") {
		t.Fatalf("query-only filter must bind a single placeholder: %s", where)
	}
	if !strings.Contains(where, "$1") {
		t.Fatalf("filter missing placeholder: %s", where)
	}
	if len(args) != 1 || args[0] != "pho" {
		t.Fatalf("unexpected args: %v", args)
	}
}
