package cache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/pds-gateway/cache"
)

func TestSignatureKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, cache.SignatureKey("sig-A"), cache.SignatureKey("sig-A"))
	require.NotEqual(t, cache.SignatureKey("sig-A"), cache.SignatureKey("sig-B"))
	require.Len(t, cache.SignatureKey("sig-A"), len("sig:")+66)
}

func TestRequestKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, cache.RequestKey(1, 2), cache.RequestKey(1, 2))
	require.NotEqual(t, cache.RequestKey(1, 2), cache.RequestKey(2, 1))
	require.NotEqual(t, cache.RequestKey(12, 3), cache.RequestKey(1, 23))
}
