// services/address.go
package services

import "regexp"

// walletAddressPattern is the base58 alphabet (no 0, O, I, l) at Solana address lengths.
var walletAddressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// IsValidWalletAddress is a shape check only; it does not prove the key is on curve.
func IsValidWalletAddress(addr string) bool {
	return walletAddressPattern.MatchString(addr)
}
