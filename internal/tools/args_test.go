package tools

import "testing"

// go test -v --run TestArgStringSlice
func TestArgStringSlice(t *testing.T) {
	args := map[string]any{
		"decoded": []any{"AAPL", "MSFT", 42},
		"typed":   []string{"TSLA"},
		"single":  "NVDA",
		"empty":   "",
	}

	if got := argStringSlice(args, "decoded"); len(got) != 2 || got[0] != "AAPL" {
		t.Errorf("decoded JSON array: got %v", got)
	}
	if got := argStringSlice(args, "typed"); len(got) != 1 || got[0] != "TSLA" {
		t.Errorf("typed slice: got %v", got)
	}
	if got := argStringSlice(args, "single"); len(got) != 1 || got[0] != "NVDA" {
		t.Errorf("bare string: got %v", got)
	}
	if got := argStringSlice(args, "empty"); got != nil {
		t.Errorf("empty string: got %v", got)
	}
	if got := argStringSlice(args, "missing"); got != nil {
		t.Errorf("missing key: got %v", got)
	}
}

// go test -v --run TestArgNumbers
func TestArgNumbers(t *testing.T) {
	args := map[string]any{
		"qty":   2.5,
		"limit": float64(100), // JSON numbers decode as float64
		"flag":  true,
	}

	if got := argFloat(args, "qty", 0); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
	if got := argInt(args, "limit", 0); got != 100 {
		t.Errorf("expected 100, got %v", got)
	}
	if got := argInt(args, "missing", 7); got != 7 {
		t.Errorf("expected fallback 7, got %v", got)
	}
	if !argBool(args, "flag", false) {
		t.Error("expected true")
	}
	if argBool(args, "missing", false) {
		t.Error("expected fallback false")
	}
}

// go test -v --run TestGroupInt
func TestGroupInt(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range cases {
		if got := groupInt(in); got != want {
			t.Errorf("groupInt(%d): expected %q, got %q", in, want, got)
		}
	}
}
