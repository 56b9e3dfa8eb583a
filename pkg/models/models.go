package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ApplicationInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Framework   string `json:"framework"`
	Backend     string `json:"backend"`
}

// Validate reports the first empty field.
func (a ApplicationInfo) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"version", a.Version},
		{"description", a.Description},
		{"framework", a.Framework},
		{"backend", a.Backend},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("application info: %s is required", f.name)
		}
	}
	return nil
}

// Recognized SystemInfo extension keys. Host data outside this set is dropped.
const (
	ExtensionOS        = "os"
	ExtensionArch      = "arch"
	ExtensionGoVersion = "go_version"
	ExtensionWebView   = "webview"
)

var knownExtensions = map[string]struct{}{
	ExtensionOS:        {},
	ExtensionArch:      {},
	ExtensionGoVersion: {},
	ExtensionWebView:   {},
}

var ErrUnknownExtension = errors.New("unknown system info extension")

type SystemInfo struct {
	Platform   string            `json:"platform"`
	Runtime    string            `json:"runtime"`
	Ready      bool              `json:"ready"`
	Mode       *string           `json:"mode,omitempty"`
	Extensions map[string]string `json:"extensions,omitempty"`
}

// WithExtension returns a copy of s with key set. The receiver is not modified.
func (s SystemInfo) WithExtension(key, value string) (SystemInfo, error) {
	key = strings.TrimSpace(key)
	if _, ok := knownExtensions[key]; !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownExtension, key)
	}
	out := s
	out.Extensions = make(map[string]string, len(s.Extensions)+1)
	for k, v := range s.Extensions {
		out.Extensions[k] = v
	}
	out.Extensions[key] = value
	return out, nil
}

// UnmarshalJSON keeps only recognized extension keys so a host cannot widen
// the extension set.
func (s *SystemInfo) UnmarshalJSON(data []byte) error {
	type wire SystemInfo
	var decoded wire
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	out := SystemInfo(decoded)
	out.Extensions = nil
	for k, v := range decoded.Extensions {
		next, err := out.WithExtension(k, v)
		if err != nil {
			continue
		}
		out = next
	}
	*s = out
	return nil
}

// ModeOrEmpty returns the mode, or "" when the host did not report one.
func (s SystemInfo) ModeOrEmpty() string {
	if s.Mode == nil {
		return ""
	}
	return *s.Mode
}

func KnownExtensions() []string {
	out := make([]string, 0, len(knownExtensions))
	for k := range knownExtensions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func StringPtr(v string) *string {
	return &v
}
