package analysis

import (
	"regexp"
	"strings"
)

// Filter decides which discovered class locations are handed to the analyzer.
// Locations have the form "path/to/lib.jar@com/example/Foo.class"; nested archives add
// further "@" separated segments. Class files found in a directory use the directory as
// container ("build/classes@com/example/Foo.class"), class files passed directly use their path.
type Filter interface {
	Matches(location string) bool
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(location string) bool

// Matches calls f.
func (f FilterFunc) Matches(location string) bool {
	return f(location)
}

// WildcardFilter includes locations matching any include pattern and no exclude pattern.
// '*' matches any sequence of characters including separators, '?' a single character.
// A pattern matches if it matches either the whole location or the dotted class name
// derived from it ("com.example.Foo"). Without include patterns everything is included.
type WildcardFilter struct {
	includes []*regexp.Regexp
	excludes []*regexp.Regexp
}

// NewWildcardFilter creates a filter from include and exclude wildcard patterns.
func NewWildcardFilter(includes []string, excludes []string) *WildcardFilter {
	return &WildcardFilter{
		includes: compileWildcards(includes),
		excludes: compileWildcards(excludes),
	}
}

// Matches implements Filter.
func (f *WildcardFilter) Matches(location string) bool {
	className := classNameOf(location)
	if len(f.includes) > 0 && !matchesAny(f.includes, location, className) {
		return false
	}
	return !matchesAny(f.excludes, location, className)
}

func matchesAny(patterns []*regexp.Regexp, location string, className string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(location) || (className != "" && pattern.MatchString(className)) {
			return true
		}
	}
	return false
}

func compileWildcards(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		var expression strings.Builder
		expression.WriteString("^")
		for _, r := range pattern {
			switch r {
			case '*':
				expression.WriteString(".*")
			case '?':
				expression.WriteString(".")
			default:
				expression.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
		expression.WriteString("$")
		compiled = append(compiled, regexp.MustCompile(expression.String()))
	}
	return compiled
}

// classNameOf derives "com.example.Foo" from "lib.jar@com/example/Foo.class". Class files
// passed directly have no container, their whole path is dotted ("target.classes.com.example.Foo").
func classNameOf(location string) string {
	if !strings.HasSuffix(location, classSuffix) {
		return ""
	}
	entry := strings.TrimSuffix(location[strings.LastIndex(location, "@")+1:], classSuffix)
	entry = strings.TrimLeft(strings.TrimPrefix(entry, "./"), "/")
	entry = strings.TrimPrefix(entry, "WEB-INF/classes/")
	entry = strings.TrimPrefix(entry, "BOOT-INF/classes/")
	return strings.Replace(entry, "/", ".", -1)
}
