package simpleupload

import "strings"

// MIME-type groupings backing both Classify and the category search filter.
// The search filter matches records by MIME-set membership rather than the
// stored category column so records written under older rule sets still
// surface (see CategoryMimeTypes).
var (
	spreadsheetMimeTypes = []string{
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/csv",
	}
	codeMimeTypes = []string{
		"text/x-python",
		"application/javascript",
		"text/html",
		"text/css",
		"application/json",
	}
	documentMimeTypes = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	archiveMimeTypes = []string{
		"application/zip",
		"application/x-rar-compressed",
		"application/x-tar",
		"application/x-7z-compressed",
		"application/gzip",
	}
)

// Classify maps a MIME type to its coarse category. Matching is
// case-insensitive; unrecognized input falls through to CategoryOther.
func Classify(mimeType string) Category {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case mt == "":
		return CategoryOther
	case strings.HasPrefix(mt, "image/"):
		return CategoryImage
	case strings.HasPrefix(mt, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mt, "audio/"):
		return CategoryAudio
	case contains(spreadsheetMimeTypes, mt):
		return CategorySpreadsheet
	case contains(codeMimeTypes, mt):
		return CategoryCode
	case strings.HasPrefix(mt, "text/") || contains(documentMimeTypes, mt):
		return CategoryDocument
	case contains(archiveMimeTypes, mt):
		return CategoryArchive
	default:
		return CategoryOther
	}
}

// MatchesCategory reports whether a MIME type belongs to the given category
// under the current rule set.
func MatchesCategory(mimeType string, category Category) bool {
	return Classify(mimeType) == category
}

// ParseCategory parses a category filter value. Unknown values return false;
// callers treat them as no constraint.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryImage:
		return CategoryImage, true
	case CategoryVideo:
		return CategoryVideo, true
	case CategoryAudio:
		return CategoryAudio, true
	case CategorySpreadsheet:
		return CategorySpreadsheet, true
	case CategoryCode:
		return CategoryCode, true
	case CategoryDocument:
		return CategoryDocument, true
	case CategoryArchive:
		return CategoryArchive, true
	case CategoryOther:
		return CategoryOther, true
	default:
		return "", false
	}
}

// MimeSet describes a category's MIME-type membership in a form SQL builders
// can translate: prefix matches plus exact matches, minus carved-out exact
// types, optionally negated (CategoryOther is everything no other rule
// claims).
type MimeSet struct {
	Prefixes []string
	Exact    []string
	Excluded []string
	Negated  bool
}

// MimeTypeSet returns the membership rules for a category. The result is
// equivalent to filtering by Classify(mimeType) == category.
func MimeTypeSet(category Category) MimeSet {
	switch category {
	case CategoryImage:
		return MimeSet{Prefixes: []string{"image/"}}
	case CategoryVideo:
		return MimeSet{Prefixes: []string{"video/"}}
	case CategoryAudio:
		return MimeSet{Prefixes: []string{"audio/"}}
	case CategorySpreadsheet:
		return MimeSet{Exact: spreadsheetMimeTypes}
	case CategoryCode:
		return MimeSet{Exact: codeMimeTypes}
	case CategoryDocument:
		// text/* belongs to document only after the spreadsheet and code
		// exact matches have had their turn.
		return MimeSet{
			Prefixes: []string{"text/"},
			Exact:    documentMimeTypes,
			Excluded: append(append([]string{}, spreadsheetMimeTypes...), codeMimeTypes...),
		}
	case CategoryArchive:
		return MimeSet{Exact: archiveMimeTypes}
	default:
		all := MimeSet{
			Prefixes: []string{"image/", "video/", "audio/", "text/"},
			Negated:  true,
		}
		all.Exact = append(all.Exact, spreadsheetMimeTypes...)
		all.Exact = append(all.Exact, codeMimeTypes...)
		all.Exact = append(all.Exact, documentMimeTypes...)
		all.Exact = append(all.Exact, archiveMimeTypes...)
		return all
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
