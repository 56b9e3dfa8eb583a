package contracts

import "testing"

func TestSplitMethodUsesLastDot(t *testing.T) {
	tests := []struct {
		method     string
		namespace  string
		capability string
		ok         bool
	}{
		{method: "go.main.App.Greet", namespace: "go.main.App", capability: "Greet", ok: true},
		{method: "wails.App.GetSystemInfo", namespace: "wails.App", capability: "GetSystemInfo", ok: true},
		{method: "Greet"},
		{method: ".Greet"},
		{method: "wails.App."},
	}
	for _, tc := range tests {
		ns, capability, ok := SplitMethod(tc.method)
		if ok != tc.ok || ns != tc.namespace || capability != tc.capability {
			t.Fatalf("SplitMethod(%q) = %q, %q, %v", tc.method, ns, capability, ok)
		}
	}
}

func TestQualifiedMethodRoundTripsEveryBinding(t *testing.T) {
	for _, ns := range Namespaces() {
		for _, capability := range Capabilities() {
			gotNS, gotCap, ok := SplitMethod(QualifiedMethod(ns, capability))
			if !ok || gotNS != ns || gotCap != capability {
				t.Fatalf("expected %s.%s, got %s.%s ok=%v", ns, capability, gotNS, gotCap, ok)
			}
		}
	}
}
