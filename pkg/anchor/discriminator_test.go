package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDiscriminator(t *testing.T) {
	// Known instruction discriminators of the launch program.
	assert.Equal(t, []byte{102, 6, 61, 18, 1, 218, 235, 234}, GetDiscriminator("global", "buy"))
	assert.Equal(t, []byte{51, 230, 133, 164, 1, 127, 131, 173}, GetDiscriminator("global", "sell"))
}

func TestAccountDiscriminator(t *testing.T) {
	assert.Equal(t, GetDiscriminator("account", "BondingCurve"), AccountDiscriminator("BondingCurve"))
	assert.Len(t, AccountDiscriminator("BondingCurve"), 8)
	assert.NotEqual(t, AccountDiscriminator("BondingCurve"), AccountDiscriminator("Global"))
}
