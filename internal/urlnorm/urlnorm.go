// Package urlnorm canonicalizes reference URLs for known e-invoicing
// jurisdictions. Government portals move, force HTTPS, or require a specific
// host/path variant; Normalize rewrites those known quirks so that link
// probing and caching operate on one canonical form per document.
package urlnorm

import (
	"net"
	"net/url"
	"strings"
)

// canonicalHosts maps bare or legacy government hosts to the host that
// actually serves the document today. Only hosts listed here are rewritten.
var canonicalHosts = map[string]string{
	"boe.es":                 "www.boe.es",
	"impots.gouv.fr":         "www.impots.gouv.fr",
	"legifrance.gouv.fr":     "www.legifrance.gouv.fr",
	"agenziaentrate.gov.it":  "www.agenziaentrate.gov.it",
	"belastingdienst.nl":     "www.belastingdienst.nl",
	"skatteverket.se":        "www.skatteverket.se",
	"finanzamt.de":           "www.finanzamt.de",
	"e-estonia.com":          "www.e-estonia.com",
	"gov.pl":                 "www.gov.pl",
}

// Normalize returns the canonical form of raw. It is pure and total: any URL
// that cannot be parsed, and any URL no rule applies to, is returned
// unchanged. Normalize(Normalize(u)) == Normalize(u) for all inputs.
//
// Rules fire independently, in a fixed order:
//  1. http:// is upgraded to https:// for named hosts (IP literals and
//     localhost are left alone).
//  2. Jurisdiction path fixups (the BOE ELI "consolidated text" view needs a
//     trailing /con segment).
//  3. Host canonicalization for the fixed allowlist above.
//  4. A trailing bare "?" with no query string is dropped.
//
// New rules must keep the function idempotent and must not be reordered
// relative to existing rules they could interact with.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	changed := false
	host := strings.ToLower(u.Hostname())

	// Rule 1: force https. Named hosts only; IP literals and localhost are
	// local or internal targets with no TLS endpoint to upgrade to.
	if u.Scheme == "http" && host != "" && host != "localhost" && net.ParseIP(host) == nil {
		u.Scheme = "https"
		changed = true
	}

	// Rule 2: BOE serves the consolidated text of a law only under the
	// /con suffix; the bare ELI path 404s once the act is amended.
	if (host == "boe.es" || host == "www.boe.es") &&
		strings.HasPrefix(u.Path, "/eli/") && !strings.HasSuffix(u.Path, "/con") {
		u.Path += "/con"
		changed = true
	}

	// Rule 3: host canonicalization.
	if canonical, ok := canonicalHosts[host]; ok && host == u.Host {
		u.Host = canonical
		changed = true
	}

	// Rule 4: drop a trailing bare "?".
	if u.ForceQuery && u.RawQuery == "" {
		u.ForceQuery = false
		changed = true
	}

	if !changed {
		return raw
	}
	return u.String()
}
