package core

import (
	"net/url"
	"strconv"
	"strings"
)

// Known publishers of species descriptions.
const (
	SourceAWF            = "African Wildlife Foundation"
	SourceWWF            = "World Wildlife Fund"
	SourceWildlifeTrusts = "The Wildlife Trusts"
)

var sourceHosts = []struct {
	host   string
	source string
}{
	{"awf.org", SourceAWF},
	{"worldwildlife.org", SourceWWF},
	{"wildlifetrusts.org", SourceWildlifeTrusts},
}

// SourceFromURL returns the publisher for rawURL, or "" when the host is unknown.
func SourceFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, sh := range sourceHosts {
		if host == sh.host || strings.HasSuffix(host, "."+sh.host) {
			return sh.source
		}
	}
	return ""
}

// Format renders r for display with unit appended.
// A range starting at zero reads "Up to X", a point value reads "X".
func (r NormalizedRange) Format(unit string) string {
	var s string
	switch {
	case r.Min == 0 && r.Max > 0:
		s = "Up to " + formatNumber(r.Max)
	case r.Min == r.Max:
		s = formatNumber(r.Min)
	default:
		s = formatNumber(r.Min) + "–" + formatNumber(r.Max)
	}
	if unit != "" {
		s += " " + unit
	}
	return s
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
