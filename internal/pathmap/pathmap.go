// Package pathmap rewrites container-namespace paths into host paths.
//
// The hook publishes the lineage path as the proxy container sees it; the
// agent reads files from the host side of the volume mount. The mapping is
// pure configuration — one validated prefix swap applied once per run.
package pathmap

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Rule maps one container-side prefix onto one host-side prefix.
type Rule struct {
	containerPrefix string
	hostPrefix      string
}

// NewRule validates and returns a prefix-rewrite rule. Both prefixes must
// be absolute paths.
func NewRule(containerPrefix, hostPrefix string) (Rule, error) {
	cp := filepath.Clean(strings.TrimSpace(containerPrefix))
	hp := filepath.Clean(strings.TrimSpace(hostPrefix))
	if !filepath.IsAbs(cp) {
		return Rule{}, fmt.Errorf("container prefix %q is not absolute", containerPrefix)
	}
	if !filepath.IsAbs(hp) {
		return Rule{}, fmt.Errorf("host prefix %q is not absolute", hostPrefix)
	}
	return Rule{containerPrefix: cp, hostPrefix: hp}, nil
}

// Translate rewrites a container-namespace path into the host namespace.
// The path must be absolute and live under the rule's container prefix.
func (r Rule) Translate(path string) (string, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if !filepath.IsAbs(p) {
		return "", fmt.Errorf("path %q is not absolute", path)
	}
	rel, err := filepath.Rel(r.containerPrefix, p)
	if err != nil {
		return "", fmt.Errorf("relativize %q against %q: %w", p, r.containerPrefix, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside container prefix %q", path, r.containerPrefix)
	}
	return filepath.Join(r.hostPrefix, rel), nil
}
