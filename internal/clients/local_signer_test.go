package clients

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"bridge-backend/internal/models"
	"bridge-backend/internal/utils"
)

const testPrivateKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func signerBech32(t *testing.T, signer *LocalSigner) string {
	t.Helper()
	addr, err := utils.FromHex(signer.Address().Hex())
	require.NoError(t, err)
	bech, err := addr.ToBech32("evmos")
	require.NoError(t, err)
	return bech
}

func signTestTransfer(t *testing.T, client *ERC20TxClient, signer *LocalSigner) []byte {
	t.Helper()
	tx, err := client.CreateERC20TokenTransferTx(context.Background(), testToken, signer.Address(), testRecipient,
		big.NewInt(100), big.NewInt(1_000_000_000), 60000)
	require.NoError(t, err)

	payload, err := tx.MarshalJSON()
	require.NoError(t, err)

	signed, err := signer.SignEthereum(context.Background(), "evmos_9001-2", signerBech32(t, signer), payload, models.EthSignTypeTransaction)
	require.NoError(t, err)
	return signed
}

func TestLocalSignerSignsTransaction(t *testing.T) {
	signer, err := NewLocalSigner("0x" + testPrivateKey)
	require.NoError(t, err)

	client := NewERC20TxClient(9001, &fakeBackend{tipCap: big.NewInt(1)}, time.Millisecond)
	signed := signTestTransfer(t, client, signer)

	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(signed))
	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	require.NoError(t, err)
	require.Equal(t, signer.Address(), sender)
	require.Equal(t, testToken, *tx.To())
}

func TestLocalSignerRejects(t *testing.T) {
	signer, err := NewLocalSigner(testPrivateKey)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = signer.SignEthereum(ctx, "evmos_9001-2", signerBech32(t, signer), []byte(`{}`), models.EthSignTypeMessage)
	require.Error(t, err)

	_, err = signer.SignEthereum(ctx, "evmos_9001-2", "evmos1t2htvpfl862vnwdqnuekd9p4ulh3h6hd4k0fm4", []byte(`{}`), models.EthSignTypeTransaction)
	require.ErrorContains(t, err, "does not match")

	_, err = signer.SignEthereum(ctx, "evmos_9001-2", signerBech32(t, signer), []byte(`not json`), models.EthSignTypeTransaction)
	require.Error(t, err)

	_, err = NewLocalSigner("zz")
	require.Error(t, err)
}
