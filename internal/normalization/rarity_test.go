package normalization

import (
	"encoding/json"
	"errors"
	"testing"

	"nft-token-indexer/internal/domain"
)

func TestDecodeRarity_Labels(t *testing.T) {
	// Every label in the closed set decodes to a distinct code
	seen := make(map[domain.Rarity]string)
	for _, label := range RarityLabels() {
		r, err := DecodeRarity(label)
		if err != nil {
			t.Fatalf("DecodeRarity(%q) failed: %v", label, err)
		}
		if prev, dup := seen[*r]; dup {
			t.Errorf("labels %q and %q share code %d", prev, label, *r)
		}
		seen[*r] = label
	}

	if len(seen) != 6 {
		t.Errorf("expected 6 labels, got %d", len(seen))
	}
}

func TestDecodeRarity_Values(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    *domain.Rarity
		wantErr error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "label", in: "legendary", want: ptr(domain.RarityLegendary)},
		{name: "label mixed case", in: " Rare ", want: ptr(domain.RarityRare)},
		{name: "float passthrough", in: 42.0, want: ptr(domain.Rarity(42))},
		{name: "json number passthrough", in: json.Number("7"), want: ptr(domain.Rarity(7))},
		{name: "int passthrough", in: 3, want: ptr(domain.Rarity(3))},
		{name: "unknown label", in: "shiny", wantErr: ErrUnknownRarity},
		{name: "fractional", in: 2.5, wantErr: ErrInvalidRarity},
		{name: "bool", in: true, wantErr: ErrInvalidRarity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRarity(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeRarity failed: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("DecodeRarity() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("DecodeRarity() = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
