package rpc

import (
	"encoding/json"
)

func callWithoutParams(rawParams json.RawMessage, call func() (any, error)) (any, *rpcError) {
	if err := decodeNoParams(rawParams); err != nil {
		return nil, rpcInvalidParams()
	}
	result, err := call()
	if err != nil {
		return nil, mapBridgeRPCError(err)
	}
	return result, nil
}
