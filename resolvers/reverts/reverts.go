// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Code classifies a revert.
type Code uint8

const (
	CodeInsufficientBalance Code = iota + 1
	CodeInsufficientSelfStake
	CodeInsufficientDelegatedStake
	CodeUnknownResolver
	CodeLockNotExpired
	CodeExitAlreadyPending
	CodeUnauthorized
	CodeZeroAmount
	CodeSelfDelegation
	CodeNoPendingExit
	CodeNoPenaltyLock
)

var codeNames = map[Code]string{
	CodeInsufficientBalance:        "InsufficientBalance",
	CodeInsufficientSelfStake:      "InsufficientSelfStake",
	CodeInsufficientDelegatedStake: "InsufficientDelegatedStake",
	CodeUnknownResolver:            "UnknownResolver",
	CodeLockNotExpired:             "LockNotExpired",
	CodeExitAlreadyPending:         "ExitAlreadyPending",
	CodeUnauthorized:               "Unauthorized",
	CodeZeroAmount:                 "ZeroAmount",
	CodeSelfDelegation:             "SelfDelegation",
	CodeNoPendingExit:              "NoPendingExit",
	CodeNoPenaltyLock:              "NoPenaltyLock",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

var (
	ErrInsufficientBalance        = New(CodeInsufficientBalance, "insufficient balance")
	ErrInsufficientSelfStake      = New(CodeInsufficientSelfStake, "insufficient unlocked self stake")
	ErrInsufficientDelegatedStake = New(CodeInsufficientDelegatedStake, "insufficient delegated stake")
	ErrUnknownResolver            = New(CodeUnknownResolver, "resolver does not exist")
	ErrLockNotExpired             = New(CodeLockNotExpired, "lock not expired")
	ErrExitAlreadyPending         = New(CodeExitAlreadyPending, "exit already pending")
	ErrUnauthorized               = New(CodeUnauthorized, "caller is not authorized")
	ErrZeroAmount                 = New(CodeZeroAmount, "amount must be positive")
	ErrSelfDelegation             = New(CodeSelfDelegation, "resolver can't delegate to itself")
	ErrNoPendingExit              = New(CodeNoPendingExit, "no pending exit")
	ErrNoPenaltyLock              = New(CodeNoPenaltyLock, "no penalty lock")
)

// ErrRevert is a recoverable rejection of an operation. Nothing was applied.
type ErrRevert struct {
	code    Code
	message string
}

func New(code Code, message string) *ErrRevert {
	return &ErrRevert{
		code:    code,
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Code() Code {
	return e.code
}

// Is matches reverts of the same code, so a revert carrying extra context still
// satisfies errors.Is against the sentinel.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	return ok && t.code == e.code
}

// WithMessage returns a revert of the same code with context prepended.
func (e *ErrRevert) WithMessage(format string, args ...any) *ErrRevert {
	return &ErrRevert{
		code:    e.code,
		message: fmt.Sprintf(format, args...) + ": " + e.message,
	}
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// CodeOf returns the code of the revert in err's chain, or 0.
func CodeOf(err error) Code {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.code
	}
	return 0
}
