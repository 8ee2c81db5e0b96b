package domain

import (
	"strings"
	"unicode/utf8"
)

// Strategy is the lexical matching mode chosen per request.
type Strategy string

const (
	// StrategyFulltext uses MATCH ... AGAINST in natural language mode.
	StrategyFulltext Strategy = "fulltext"
	// StrategyFallback uses LIKE containment when the query is too short for
	// the full-text engine or the indexes are missing.
	StrategyFallback Strategy = "fallback"
)

// minFulltextQueryLen is the shortest trimmed query, in runes, that the
// full-text strategy accepts. Shorter tokens fall below the engine's
// default minimum word length and would match nothing.
const minFulltextQueryLen = 3

// noFileType is the sentinel matched against the file_type column when the
// query is not a known file extension. It can never equal a real extension.
const noFileType = "__none__"

// fileTypeWhitelist holds the extension tokens that activate the file-type
// side channel in the document search.
var fileTypeWhitelist = map[string]struct{}{
	"pdf": {}, "jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
	"tif": {}, "tiff": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {},
}

// Query is a normalized search request.
type Query struct {
	// Raw is the query as typed, whitespace-trimmed. Used for matching.
	Raw string
	// Normalized is the lowercased, dot-stripped form. Used for cache keys,
	// the extension side channel and activity logging.
	Normalized string
	// Page is the 1-based result page, clamped to >= 1.
	Page int
}

// NewQuery normalizes the raw query text and page number.
func NewQuery(raw string, page int) Query {
	trimmed := strings.TrimSpace(raw)
	if page < 1 {
		page = 1
	}
	return Query{
		Raw:        trimmed,
		Normalized: strings.TrimLeft(strings.ToLower(trimmed), "."),
		Page:       page,
	}
}

// IsEmpty reports whether the query has no searchable text.
func (q Query) IsEmpty() bool {
	return q.Raw == ""
}

// Like returns the containment pattern for LIKE matching.
func (q Query) Like() string {
	return "%" + q.Raw + "%"
}

// FileType returns the normalized query when it names a whitelisted file
// extension, or the noFileType sentinel otherwise.
func (q Query) FileType() string {
	if _, ok := fileTypeWhitelist[q.Normalized]; ok {
		return q.Normalized
	}
	return noFileType
}

// ChooseStrategy picks the lexical strategy for the query. Full text needs
// both the probed index capability and enough runes to clear the engine's
// minimum word length.
func ChooseStrategy(q Query, fulltextAvailable bool) Strategy {
	if fulltextAvailable && utf8.RuneCountInString(q.Raw) >= minFulltextQueryLen {
		return StrategyFulltext
	}
	return StrategyFallback
}
