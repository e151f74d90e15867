package cache

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureKey derives the cache key of a request from its BAND_SIGNATURE.
func SignatureKey(signature string) string {
	return "sig:" + crypto.Keccak256Hash([]byte(signature)).Hex()
}

// RequestKey derives the dedup key from the oracle request and external ids.
func RequestKey(requestID, externalID int64) string {
	return "req:" + crypto.Keccak256Hash([]byte(fmt.Sprintf("%d:%d", requestID, externalID))).Hex()
}
