package bridgeclient

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"desktop-shell/go-backend/internal/domains/contracts"
)

type DoctorCheck struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Reason string `json:"reason,omitempty"`
}

type DoctorReport struct {
	Ready     bool          `json:"ready"`
	Checks    []DoctorCheck `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Doctor runs the front-end's view of the host: reachability, namespace
// binding, readiness and cross-namespace agreement.
func (c *Client) Doctor(ctx context.Context) DoctorReport {
	report := DoctorReport{
		Ready:     true,
		Checks:    make([]DoctorCheck, 0, 8),
		CheckedAt: time.Now().UTC(),
	}
	appendCheck := func(name string, pass bool, reason string) {
		report.Checks = append(report.Checks, DoctorCheck{Name: name, Pass: pass, Reason: reason})
		if !pass {
			report.Ready = false
		}
	}

	if err := validateBaseURL(c.baseURL); err != nil {
		appendCheck("rpc_addr_valid", false, err.Error())
		return report
	}
	appendCheck("rpc_addr_valid", true, "")

	caps, err := c.Capabilities(ctx)
	if err != nil {
		appendCheck("rpc_reachable", false, err.Error())
		return report
	}
	appendCheck("rpc_reachable", true, "")

	for _, ns := range contracts.Namespaces() {
		bound := caps.Has(ns)
		appendCheck("namespace_bound:"+ns, bound, failReason(!bound, "namespace is not bound"))
	}
	if !caps.Has(contracts.NamespaceRuntime) || !caps.Has(contracts.NamespaceFramework) {
		return report
	}
	same := reflect.DeepEqual(caps.Namespaces[contracts.NamespaceRuntime], caps.Namespaces[contracts.NamespaceFramework])
	appendCheck("capabilities_match", same, failReason(!same, "namespaces expose different capability sets"))

	appendCheck("host_ready", caps.Ready, failReason(!caps.Ready, "host has not finished initializing"))
	if !caps.Ready {
		return report
	}

	runtimeInfo, runtimeErr := c.Namespace(contracts.NamespaceRuntime).GetApplicationInfo(ctx)
	frameworkInfo, frameworkErr := c.Namespace(contracts.NamespaceFramework).GetApplicationInfo(ctx)
	switch {
	case runtimeErr != nil:
		appendCheck("app_info_consistent", false, runtimeErr.Error())
	case frameworkErr != nil:
		appendCheck("app_info_consistent", false, frameworkErr.Error())
	default:
		match := runtimeInfo == frameworkInfo
		appendCheck("app_info_consistent", match, failReason(!match, fmt.Sprintf("%q != %q", runtimeInfo.Name, frameworkInfo.Name)))
	}
	return report
}

func failReason(failed bool, reason string) string {
	if !failed {
		return ""
	}
	return reason
}

func validateBaseURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("rpc address is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("rpc address is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("rpc address scheme is invalid: %q", u.Scheme)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return fmt.Errorf("rpc address needs host:port: %q", u.Host)
	}
	if strings.TrimSpace(host) == "" {
		return fmt.Errorf("rpc address host is empty")
	}
	p, convErr := strconv.Atoi(port)
	if convErr != nil || p < 1 || p > 65535 {
		return fmt.Errorf("rpc address port is invalid: %q", port)
	}
	return nil
}
