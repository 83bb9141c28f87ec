package brick

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// ErrorCode is a program error as reported in a transaction's
// InstructionError. Codes start at 6000 like Anchor custom errors.
type ErrorCode uint32

const errorCodeOffset = 6000

const (
	ErrCannotCloseProduct ErrorCode = iota + errorCodeOffset
	ErrStringTooLong
	ErrNumericalOverflow
	ErrIncorrectFee
	ErrIncorrectATA
	ErrIncorrectAuthority
	ErrIncorrectTokenAuthority
	ErrIncorrectMint
	ErrIncorrectSeeds
	ErrIncorrectGovernanceName
	ErrIncorrectTokenProgram
	ErrConversionError
	ErrTransferError
	ErrMintToError
	ErrBurnError
	ErrCloseAccountError
	ErrOpenPromotion
	ErrClosedPromotion
	ErrOptionalAccountNotProvided
	ErrNotInWhitelist
	ErrCannotWithdrawYet
	ErrTimeForRefundHasConsumed
	ErrVaultCapacityExceeded
	ErrIncorrectQuantity
	ErrNotEnoughExemplars
	ErrInvalidTimestamp
	ErrIncorrectAccountData
	ErrMissingSigner
	ErrNotEnoughAccounts
	ErrInvalidInstruction
)

var errorCodeNames = map[ErrorCode]string{
	ErrCannotCloseProduct:         "CannotCloseProduct",
	ErrStringTooLong:              "StringTooLong",
	ErrNumericalOverflow:          "NumericalOverflow",
	ErrIncorrectFee:               "IncorrectFee",
	ErrIncorrectATA:               "IncorrectATA",
	ErrIncorrectAuthority:         "IncorrectAuthority",
	ErrIncorrectTokenAuthority:    "IncorrectTokenAuthority",
	ErrIncorrectMint:              "IncorrectMint",
	ErrIncorrectSeeds:             "IncorrectSeeds",
	ErrIncorrectGovernanceName:    "IncorrectGovernanceName",
	ErrIncorrectTokenProgram:      "IncorrectTokenProgram",
	ErrConversionError:            "ConversionError",
	ErrTransferError:              "TransferError",
	ErrMintToError:                "MintToError",
	ErrBurnError:                  "BurnError",
	ErrCloseAccountError:          "CloseAccountError",
	ErrOpenPromotion:              "OpenPromotion",
	ErrClosedPromotion:            "ClosedPromotion",
	ErrOptionalAccountNotProvided: "OptionalAccountNotProvided",
	ErrNotInWhitelist:             "NotInWhitelist",
	ErrCannotWithdrawYet:          "CannotWithdrawYet",
	ErrTimeForRefundHasConsumed:   "TimeForRefundHasConsumed",
	ErrVaultCapacityExceeded:      "VaultCapacityExceeded",
	ErrIncorrectQuantity:          "IncorrectQuantity",
	ErrNotEnoughExemplars:         "NotEnoughExemplars",
	ErrInvalidTimestamp:           "InvalidTimestamp",
	ErrIncorrectAccountData:       "IncorrectAccountData",
	ErrMissingSigner:              "MissingSigner",
	ErrNotEnoughAccounts:          "NotEnoughAccounts",
	ErrInvalidInstruction:         "InvalidInstruction",
}

var errorCodeMessages = map[ErrorCode]string{
	ErrCannotCloseProduct:         "product has open escrow payments",
	ErrStringTooLong:              "string exceeds the maximum length",
	ErrNumericalOverflow:          "numerical overflow",
	ErrIncorrectFee:               "basis points above 10000",
	ErrIncorrectATA:               "token account has the wrong mint",
	ErrIncorrectAuthority:         "incorrect authority",
	ErrIncorrectTokenAuthority:    "token account owned by the wrong authority",
	ErrIncorrectMint:              "incorrect mint",
	ErrIncorrectSeeds:             "account address does not match its seeds",
	ErrIncorrectGovernanceName:    "governance name not allowed",
	ErrIncorrectTokenProgram:      "incorrect token program",
	ErrConversionError:            "value does not fit the target type",
	ErrTransferError:              "token transfer failed",
	ErrMintToError:                "token mint failed",
	ErrBurnError:                  "token burn failed",
	ErrCloseAccountError:          "token account close failed",
	ErrOpenPromotion:              "promotion is still open",
	ErrClosedPromotion:            "promotion is closed",
	ErrOptionalAccountNotProvided: "required optional account not provided",
	ErrNotInWhitelist:             "signer holds no access token",
	ErrCannotWithdrawYet:          "refund window still open",
	ErrTimeForRefundHasConsumed:   "refund window has closed",
	ErrVaultCapacityExceeded:      "vault capacity exceeded",
	ErrIncorrectQuantity:          "quantity must be greater than zero",
	ErrNotEnoughExemplars:         "not enough exemplars left",
	ErrInvalidTimestamp:           "payment timestamp is in the future",
	ErrIncorrectAccountData:       "account data is invalid or owned by another program",
	ErrMissingSigner:              "missing required signature",
	ErrNotEnoughAccounts:          "not enough account keys",
	ErrInvalidInstruction:         "invalid instruction data",
}

func (e ErrorCode) Error() string {
	if msg, ok := errorCodeMessages[e]; ok {
		return fmt.Sprintf("%s: %s", errorCodeNames[e], msg)
	}
	return fmt.Sprintf("unknown program error %d", uint32(e))
}

// Name returns the variant name, e.g. "CannotWithdrawYet".
func (e ErrorCode) Name() string {
	if name, ok := errorCodeNames[e]; ok {
		return name
	}
	return "Unknown"
}

// Code is the custom error code reported by the host.
func (e ErrorCode) Code() uint32 {
	return uint32(e)
}

// ErrorCodeFromCustom returns the ErrorCode for a custom program error code.
func ErrorCodeFromCustom(code uint32) (ErrorCode, bool) {
	e := ErrorCode(code)
	_, ok := errorCodeNames[e]
	return e, ok
}

// InstructionError builds the transaction error value for a failed
// instruction, in the shape the RPC reports it.
func InstructionError(index int, err error) map[string]any {
	var code ErrorCode
	if errors.As(err, &code) {
		return map[string]any{
			"InstructionError": []any{index, map[string]any{"Custom": json.Number(strconv.FormatUint(uint64(code), 10))}},
		}
	}
	return map[string]any{
		"InstructionError": []any{index, err.Error()},
	}
}

// ProgramError extracts a program error code from a transaction error. It
// understands both RPC preflight failures and a failed transaction's meta.
func ProgramError(err any) (ErrorCode, bool) {
	if err == nil {
		return 0, false
	}
	if e, ok := err.(error); ok {
		var code ErrorCode
		if errors.As(e, &code) {
			return code, true
		}
		var rpcErr *jsonrpc.RPCError
		if errors.As(e, &rpcErr) {
			data, ok := rpcErr.Data.(map[string]any)
			if !ok {
				return 0, false
			}
			return ProgramError(data["err"])
		}
		return 0, false
	}

	errMap, ok := err.(map[string]any)
	if !ok {
		return 0, false
	}
	instrErr, ok := errMap["InstructionError"].([]any)
	if !ok || len(instrErr) != 2 {
		return 0, false
	}
	detail, ok := instrErr[1].(map[string]any)
	if !ok {
		return 0, false
	}

	var custom uint64
	switch v := detail["Custom"].(type) {
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 32)
		if err != nil {
			return 0, false
		}
		custom = n
	case float64:
		custom = uint64(v)
	case uint32:
		custom = uint64(v)
	case int:
		custom = uint64(v)
	default:
		return 0, false
	}
	return ErrorCodeFromCustom(uint32(custom))
}
