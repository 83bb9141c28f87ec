package brick_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/brick/smartcontract/sdk/go/brick"
)

func TestSDK_Brick_ErrorCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint32(6000), brick.ErrCannotCloseProduct.Code())
	require.Equal(t, "CannotWithdrawYet", brick.ErrCannotWithdrawYet.Name())
	require.Contains(t, brick.ErrIncorrectFee.Error(), "IncorrectFee")

	wrapped := fmt.Errorf("failed to execute withdraw funds: %w", brick.ErrCannotWithdrawYet)
	require.ErrorIs(t, wrapped, brick.ErrCannotWithdrawYet)
	require.False(t, errors.Is(wrapped, brick.ErrTimeForRefundHasConsumed))

	_, ok := brick.ErrorCodeFromCustom(1)
	require.False(t, ok)
}

func TestSDK_Brick_ProgramError(t *testing.T) {
	t.Parallel()

	meta := brick.InstructionError(0, brick.ErrClosedPromotion)
	code, ok := brick.ProgramError(meta)
	require.True(t, ok)
	require.Equal(t, brick.ErrClosedPromotion, code)

	// Meta errors decoded from JSON carry json.Number or float64.
	var decoded map[string]any
	raw := `{"InstructionError":[1,{"Custom":6017}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	code, ok = brick.ProgramError(decoded)
	require.True(t, ok)
	require.Equal(t, brick.ErrClosedPromotion, code)

	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data:    map[string]any{"err": brick.InstructionError(0, brick.ErrIncorrectSeeds)},
	}
	code, ok = brick.ProgramError(fmt.Errorf("send: %w", rpcErr))
	require.True(t, ok)
	require.Equal(t, brick.ErrIncorrectSeeds, code)

	_, ok = brick.ProgramError(brick.InstructionError(0, errors.New("AccountAlreadyInitialized")))
	require.False(t, ok)
	_, ok = brick.ProgramError(nil)
	require.False(t, ok)
}
