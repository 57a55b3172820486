package processor

import (
	"context"
	"fmt"

	"nft-token-indexer/internal/domain"
	"nft-token-indexer/internal/idhash"
)

// cascade removes the sale and rent listings of a token. Removal is
// unconditional; stores treat absent keys as a no-op.
func (s *Session) cascade(ctx context.Context, tokenKey string) error {
	saleKey := idhash.SaleKey(s.info.ContractID, tokenKey)
	if err := s.stores.Sales.Remove(ctx, saleKey); err != nil {
		return fmt.Errorf("remove sale %s: %w", saleKey, err)
	}
	s.metrics.RecordCascade(string(domain.ListingSale))

	rentKey := idhash.RentKey(s.info.ContractID, tokenKey)
	if err := s.stores.Rents.Remove(ctx, rentKey); err != nil {
		return fmt.Errorf("remove rent %s: %w", rentKey, err)
	}
	s.metrics.RecordCascade(string(domain.ListingRent))
	return nil
}
