package security

import (
	"fmt"
	"strings"
	"unicode"

	"presale/internal/domain"

	"github.com/tonkeeper/tongo/ton"
)

// AddressValidator checks wallet identifiers before they reach the ledger.
type AddressValidator struct {
	format string
}

func NewAddressValidator(format string) *AddressValidator {
	if format == "" {
		format = domain.AddressFormatAny
	}
	return &AddressValidator{format: format}
}

// Validate returns nil when wallet is acceptable. Wallets are compared
// byte for byte everywhere, so no normalization happens here.
func (v *AddressValidator) Validate(wallet string) error {
	if wallet == "" {
		return fmt.Errorf("wallet is required")
	}
	if len(wallet) > domain.MaxWalletLength {
		return fmt.Errorf("wallet must be at most %d characters", domain.MaxWalletLength)
	}
	if strings.IndexFunc(wallet, func(r rune) bool {
		return unicode.IsSpace(r) || !unicode.IsPrint(r)
	}) >= 0 {
		return fmt.Errorf("wallet contains invalid characters")
	}
	if v.format == domain.AddressFormatTON {
		if _, err := ton.ParseAccountID(wallet); err != nil {
			return fmt.Errorf("wallet is not a valid TON address")
		}
	}
	return nil
}
