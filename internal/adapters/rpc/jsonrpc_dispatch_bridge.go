package rpc

import (
	"context"
	"encoding/json"

	"desktop-shell/go-backend/internal/domains/contracts"
)

const (
	methodHealthCheck  = "health_check"
	methodVersion      = "rpc.version"
	methodCapabilities = "rpc.capabilities"

	methodDOMReady    = "shell.domReady"
	methodBeforeClose = "shell.beforeClose"
)

var knownMethods = buildKnownMethods()

func buildKnownMethods() map[string]struct{} {
	out := map[string]struct{}{
		methodHealthCheck:  {},
		methodVersion:      {},
		methodCapabilities: {},
		methodDOMReady:     {},
		methodBeforeClose:  {},
	}
	for _, ns := range contracts.Namespaces() {
		for _, capability := range contracts.Capabilities() {
			out[contracts.QualifiedMethod(ns, capability)] = struct{}{}
		}
	}
	return out
}

// bindNamespaces binds every namespace to the same service value so the
// capability sets cannot drift apart.
func bindNamespaces(svc contracts.HostService) map[string]contracts.BridgeAPI {
	out := make(map[string]contracts.BridgeAPI, 2)
	if svc == nil {
		return out
	}
	for _, ns := range contracts.Namespaces() {
		out[ns] = svc
	}
	return out
}

func (s *Server) capabilities() map[string]any {
	namespaces := make(map[string][]string, len(s.bindings))
	for ns := range s.bindings {
		namespaces[ns] = contracts.Capabilities()
	}
	ready := false
	if s.service != nil {
		ready = s.service.Ready()
	}
	return map[string]any{
		"namespaces": namespaces,
		"ready":      ready,
	}
}

func (s *Server) dispatchLifecycleRPC(ctx context.Context, method string) (any, *rpcError, bool) {
	switch method {
	case methodDOMReady:
		s.service.DOMReady(ctx)
		return map[string]bool{"ready": s.service.Ready()}, nil, true
	case methodBeforeClose:
		return map[string]bool{"prevent": s.service.BeforeClose(ctx)}, nil, true
	default:
		return nil, nil, false
	}
}

func (s *Server) dispatchBridgeRPC(ctx context.Context, method string, rawParams json.RawMessage) (any, *rpcError, bool) {
	ns, capability, ok := contracts.SplitMethod(method)
	if !ok {
		return nil, nil, false
	}
	bridge, ok := s.bindings[ns]
	if !ok {
		return nil, nil, false
	}

	switch capability {
	case contracts.CapabilityGreet:
		name, err := decodeGreetParams(rawParams)
		if err != nil {
			return nil, rpcInvalidParams(), true
		}
		result, err := bridge.Greet(ctx, name)
		if err != nil {
			return nil, mapBridgeRPCError(err), true
		}
		return result, nil, true
	case contracts.CapabilityGetAppInfo:
		result, rpcErr := callWithoutParams(rawParams, func() (any, error) {
			return bridge.GetApplicationInfo(ctx)
		})
		return result, rpcErr, true
	case contracts.CapabilityGetSystemInfo:
		result, rpcErr := callWithoutParams(rawParams, func() (any, error) {
			return bridge.GetSystemInfo(ctx)
		})
		return result, rpcErr, true
	default:
		return nil, &rpcError{Code: -32601, Message: "method not found"}, true
	}
}
