package router

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swapengine/pkg"
	"swapengine/pkg/anchor"
	"swapengine/pkg/pool/pump"
	"swapengine/pkg/pool/raydium"
	"swapengine/pkg/sol"
)

type fakeReader struct {
	accounts        map[solana.PublicKey][]byte
	programAccounts []sol.ProgramAccount
}

func (f *fakeReader) GetAccountDataBytes(_ context.Context, account solana.PublicKey) ([]byte, error) {
	data, ok := f.accounts[account]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return data, nil
}

func (f *fakeReader) FindProgramAccounts(_ context.Context, _ solana.PublicKey, filters []rpc.RPCFilter) ([]sol.ProgramAccount, error) {
	// Honor the memcmp filters so orientation fallthrough is exercised.
	var matched []sol.ProgramAccount
	for _, account := range f.programAccounts {
		ok := true
		for _, filter := range filters {
			if filter.Memcmp == nil {
				continue
			}
			want := []byte(filter.Memcmp.Bytes)
			offset := int(filter.Memcmp.Offset)
			if string(account.Data[offset:offset+len(want)]) != string(want) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, account)
		}
	}
	return matched, nil
}

func curveBytes(complete bool) []byte {
	data := make([]byte, pump.CurveAccountSize)
	copy(data[:8], anchor.AccountDiscriminator("BondingCurve"))
	binary.LittleEndian.PutUint64(data[8:16], 30_000_000_000)
	binary.LittleEndian.PutUint64(data[16:24], 30_000_000_000)
	if complete {
		data[48] = 1
	}
	return data
}

func poolBytes(baseMint, quoteMint solana.PublicKey) []byte {
	data := make([]byte, raydium.PoolStateSize)
	copy(data[raydium.BaseMintOffset:], baseMint.Bytes())
	copy(data[raydium.QuoteMintOffset:], quoteMint.Bytes())
	return data
}

func TestResolveActiveCurve(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	curveID, err := pump.DeriveCurveAddress(mint)
	require.NoError(t, err)

	reader := &fakeReader{
		accounts: map[solana.PublicKey][]byte{curveID: curveBytes(false)},
	}

	route, err := NewRouter(zap.NewNop()).Resolve(context.Background(), reader, mint)
	require.NoError(t, err)
	assert.Equal(t, pkg.VenueBondingCurve, route.Venue)
	require.NotNil(t, route.Curve)
	assert.Nil(t, route.Pool)
	assert.Equal(t, curveID, route.Curve.CurveID)
	assert.Equal(t, uint64(30_000_000_000), route.Curve.VirtualTokenReserves)
}

func TestResolveCompleteCurveFallsToAMM(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	curveID, err := pump.DeriveCurveAddress(mint)
	require.NoError(t, err)
	poolID := solana.NewWallet().PublicKey()

	reader := &fakeReader{
		accounts: map[solana.PublicKey][]byte{curveID: curveBytes(true)},
		programAccounts: []sol.ProgramAccount{
			{Pubkey: poolID, Data: poolBytes(mint, raydium.WSOL)},
		},
	}

	route, err := NewRouter(zap.NewNop()).Resolve(context.Background(), reader, mint)
	require.NoError(t, err)
	// A completed curve must never be the routed venue.
	assert.Equal(t, pkg.VenueConstantProduct, route.Venue)
	assert.Nil(t, route.Curve)
	require.NotNil(t, route.Pool)
	assert.Equal(t, poolID, route.Pool.PoolID)
	assert.Equal(t, mint, route.Pool.BaseMint)
}

func TestResolveReversedPoolOrientation(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	poolID := solana.NewWallet().PublicKey()

	reader := &fakeReader{
		accounts: map[solana.PublicKey][]byte{},
		programAccounts: []sol.ProgramAccount{
			{Pubkey: poolID, Data: poolBytes(raydium.WSOL, mint)},
		},
	}

	route, err := NewRouter(zap.NewNop()).Resolve(context.Background(), reader, mint)
	require.NoError(t, err)
	assert.Equal(t, pkg.VenueConstantProduct, route.Venue)
	require.NotNil(t, route.Pool)
	assert.Equal(t, raydium.WSOL, route.Pool.BaseMint)
	assert.Equal(t, mint, route.Pool.QuoteMint)
}

func TestResolveNoVenue(t *testing.T) {
	reader := &fakeReader{accounts: map[solana.PublicKey][]byte{}}

	_, err := NewRouter(zap.NewNop()).Resolve(context.Background(), reader, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, pkg.ErrNoVenueFound)
}

func TestResolveAMMPoolIgnoresLiveCurve(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	curveID, err := pump.DeriveCurveAddress(mint)
	require.NoError(t, err)
	poolID := solana.NewWallet().PublicKey()

	// Pool lookups answer for the pool even while the curve still trades.
	reader := &fakeReader{
		accounts: map[solana.PublicKey][]byte{curveID: curveBytes(false)},
		programAccounts: []sol.ProgramAccount{
			{Pubkey: poolID, Data: poolBytes(mint, raydium.WSOL)},
		},
	}

	pool, err := NewRouter(zap.NewNop()).ResolveAMMPool(context.Background(), reader, mint)
	require.NoError(t, err)
	assert.Equal(t, poolID, pool.PoolID)
	assert.Equal(t, mint, pool.BaseMint)
	assert.Equal(t, raydium.WSOL, pool.QuoteMint)
}

func TestResolveAMMPoolNoPool(t *testing.T) {
	reader := &fakeReader{accounts: map[solana.PublicKey][]byte{}}

	_, err := NewRouter(zap.NewNop()).ResolveAMMPool(context.Background(), reader, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, pkg.ErrNoVenueFound)
}

func TestResolveCorruptCurveFails(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	curveID, err := pump.DeriveCurveAddress(mint)
	require.NoError(t, err)

	corrupt := curveBytes(false)
	copy(corrupt[:8], anchor.AccountDiscriminator("Global"))
	reader := &fakeReader{
		accounts: map[solana.PublicKey][]byte{curveID: corrupt},
	}

	_, err = NewRouter(zap.NewNop()).Resolve(context.Background(), reader, mint)
	assert.ErrorIs(t, err, pkg.ErrDecode)
}
