package event

// Kind is the event name emitted by NFT contracts.
type Kind string

const (
	KindCreate         Kind = "nft_create"
	KindTransfer       Kind = "nft_transfer"
	KindBurn           Kind = "nft_burn"
	KindMint           Kind = "nft_mint"
	KindTransferPayout Kind = "nft_transfer_payout"
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the kind is handled by the processor.
func (k Kind) IsValid() bool {
	switch k {
	case KindCreate, KindTransfer, KindBurn, KindMint, KindTransferPayout:
		return true
	default:
		return false
	}
}
