package searchcrawl

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// paginationToken matches the words sites use to name a page index, with an
// optional "num" suffix: page, pg, p-num, page_num, pagenum and so on.
const paginationToken = `(?:p|pa|pag|page|pg|paging|pagination)(?:[-_]?num)?`

var (
	// paginationPathRe matches a trailing pagination segment such as
	// "/page/3", "-p-2" or "_pg=4". The match start is where the pagination
	// base of the path ends.
	paginationPathRe = regexp.MustCompile(`(?i)[/_-]` + paginationToken + `[/=-]?(\d{1,3})$`)

	// paginationKeyRe and paginationValueRe together match a whole query
	// parameter such as "page=3".
	paginationKeyRe   = regexp.MustCompile(`(?i)^` + paginationToken + `$`)
	paginationValueRe = regexp.MustCompile(`^\d{1,3}$`)
)

// URL is an immutable, normalized view of a web address.
//
// Paths lose a single trailing slash and query parameters are sorted, so
// URLs that differ only in those respects share a canonical form. A URL also
// knows whether it is one page of a paginated series, which lets the crawler
// treat "?page=1" and the bare address as the same logical page.
type URL struct {
	scheme    string
	authority string
	path      string
	query     string

	domainRoot     string
	pathRoot       string
	paginationBase string
	canonical      string

	page      int
	paginated bool
}

// ParseURL parses raw into a URL. It returns an EINVALID error when raw is
// not an absolute URL with both a scheme and an authority.
func ParseURL(raw string) (URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return URL{}, Errorf(EINVALID, "invalid URL %q: %v", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return URL{}, Errorf(EINVALID, "invalid URL %q: scheme and host required", raw)
	}

	authority := u.Host
	if u.User != nil {
		authority = u.User.String() + "@" + authority
	}

	path := strings.TrimSuffix(u.EscapedPath(), "/")
	pairs := parseQuery(u.RawQuery)

	out := URL{
		scheme:    u.Scheme,
		authority: authority,
		path:      path,
		query:     encodeQuery(pairs),
	}
	out.domainRoot = out.scheme + "://" + out.authority
	out.pathRoot = out.domainRoot + out.path

	basePath := path
	loc := paginationPathRe.FindStringSubmatchIndex(path)
	if loc != nil {
		basePath = path[:loc[0]]
	}
	out.paginationBase = out.domainRoot + basePath

	// Query parameters take precedence over the path.
	if n, ok := queryPageNumber(pairs); ok {
		out.page, out.paginated = n, true
	} else if loc != nil {
		out.page, _ = strconv.Atoi(path[loc[2]:loc[3]])
		out.paginated = true
	}

	out.canonical = out.pathRoot
	if out.query != "" {
		out.canonical += "?" + out.query
	}
	return out, nil
}

// MustParseURL is like ParseURL but panics on error. It is intended for
// tests and package-level constants.
func MustParseURL(raw string) URL {
	u, err := ParseURL(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// Scheme returns the URL scheme, e.g. "https".
func (u URL) Scheme() string { return u.scheme }

// Authority returns the host with optional port and user info.
func (u URL) Authority() string { return u.authority }

// Path returns the escaped path without a trailing slash.
func (u URL) Path() string { return u.path }

// Query returns the normalized query string without the leading "?".
func (u URL) Query() string { return u.query }

// DomainRoot returns scheme and authority only. Two URLs on the same site
// share a domain root.
func (u URL) DomainRoot() string { return u.domainRoot }

// PathRoot returns scheme, authority and normalized path, without the query.
func (u URL) PathRoot() string { return u.pathRoot }

// PaginationBase returns the path root with any trailing pagination segment
// removed. Every page of a series shares a pagination base.
func (u URL) PaginationBase() string { return u.paginationBase }

// PageNumber returns the detected page index. The bool result is false when
// the URL is not paginated.
func (u URL) PageNumber() (int, bool) { return u.page, u.paginated }

// Canonical returns the normalized string form of the URL.
func (u URL) Canonical() string { return u.canonical }

// String returns the canonical form.
func (u URL) String() string { return u.canonical }

// Key returns the canonical form for use as a map key. Maps keyed this way
// do not merge an explicit first page with its bare address; see Equivalent.
func (u URL) Key() string { return u.canonical }

// Equivalent reports whether u and other address the same logical page:
// either their canonical forms match, or one is page 1 of a series whose
// pagination base is the other's unpaginated path root. The relation is
// symmetric but not transitive.
func (u URL) Equivalent(other URL) bool {
	if u.canonical == other.canonical {
		return true
	}
	return u.isFirstPageOf(other) || other.isFirstPageOf(u)
}

// IsPaginationOf reports whether u is a page of the series other belongs to.
func (u URL) IsPaginationOf(other URL) bool {
	return u.paginated && u.paginationBase == other.paginationBase
}

func (u URL) isFirstPageOf(other URL) bool {
	return u.paginated && u.page == 1 && !other.paginated && u.paginationBase == other.pathRoot
}

// queryPair is a decoded query parameter. Blank values are kept.
type queryPair struct {
	key, value string
}

// parseQuery splits a raw query into decoded pairs in their original order.
// Pieces that fail to decode are kept verbatim.
func parseQuery(raw string) []queryPair {
	var pairs []queryPair
	for _, piece := range strings.Split(raw, "&") {
		if piece == "" {
			continue
		}
		k, v, _ := strings.Cut(piece, "=")
		pairs = append(pairs, queryPair{key: unescape(k), value: unescape(v)})
	}
	return pairs
}

func unescape(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	return s
}

// encodeQuery sorts pairs by key then value and re-encodes them.
func encodeQuery(pairs []queryPair) string {
	if len(pairs) == 0 {
		return ""
	}
	sorted := make([]queryPair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].key != sorted[j].key {
			return sorted[i].key < sorted[j].key
		}
		return sorted[i].value < sorted[j].value
	})

	var b strings.Builder
	for i, p := range sorted {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

// queryPageNumber returns the value of the first parameter, in original
// order, that names a page index.
func queryPageNumber(pairs []queryPair) (int, bool) {
	for _, p := range pairs {
		if paginationKeyRe.MatchString(p.key) && paginationValueRe.MatchString(p.value) {
			n, err := strconv.Atoi(p.value)
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
