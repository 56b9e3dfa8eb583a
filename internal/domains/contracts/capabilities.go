package contracts

import "strings"

// Wire names of the bridge capabilities. GetAppInfo is the host-side name of
// GetApplicationInfo.
const (
	CapabilityGreet         = "Greet"
	CapabilityGetAppInfo    = "GetAppInfo"
	CapabilityGetSystemInfo = "GetSystemInfo"
)

// Both namespaces bind the same BridgeAPI value.
const (
	NamespaceRuntime   = "wails.App"
	NamespaceFramework = "go.main.App"
)

func Capabilities() []string {
	return []string{CapabilityGreet, CapabilityGetAppInfo, CapabilityGetSystemInfo}
}

func Namespaces() []string {
	return []string{NamespaceRuntime, NamespaceFramework}
}

// SplitMethod splits "go.main.App.Greet" into its namespace and capability.
func SplitMethod(method string) (namespace, capability string, ok bool) {
	idx := strings.LastIndex(method, ".")
	if idx <= 0 || idx == len(method)-1 {
		return "", "", false
	}
	return method[:idx], method[idx+1:], true
}

func QualifiedMethod(namespace, capability string) string {
	return namespace + "." + capability
}
