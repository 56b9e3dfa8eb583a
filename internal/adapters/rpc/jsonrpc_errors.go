package rpc

import (
	"context"
	"errors"

	"desktop-shell/go-backend/internal/domains/contracts"
)

const (
	codeServiceError   = -32000
	codeCanceled       = -32001
	codeNotReady       = -32010
	codeServiceMissing = -32099
)

func rpcInvalidParams() *rpcError {
	return &rpcError{Code: -32602, Message: "invalid params"}
}

func rpcServiceError(code int, err error) *rpcError {
	return &rpcError{Code: code, Message: err.Error()}
}

func mapBridgeRPCError(err error) *rpcError {
	switch {
	case errors.Is(err, contracts.ErrNotReady):
		return rpcServiceError(codeNotReady, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return rpcServiceError(codeCanceled, err)
	default:
		return rpcServiceError(codeServiceError, err)
	}
}
