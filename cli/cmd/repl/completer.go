package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/formula/lang"
)

// ctrlCommands are the available control-mode commands.
//
//nolint:gochecknoglobals
var ctrlCommands = []string{"help", "list", "tree", "edit", "clear", "quit"}

// isWordBoundary reports whether r delimits words for completion: whitespace,
// the member-access dot, quotes, and operator or punctuation characters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t', '\'', '"',
		'(', ')', '[', ']',
		'+', '-', '*', '/',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor and its byte boundaries within
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word that
// starts at wordStart, and whether the word follows a dot. For "x + os.ar"
// with the word "ar" it is "os". The chain is empty for top-level words and
// for members of a non-identifier receiver such as "'abc'.to".
func parentPath(input string, wordStart int) (path string, member bool) {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return "", false
	}

	prefix = strings.TrimSuffix(prefix, ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:]), true
}

// completionTree returns the constants visible to expressions: the host
// constants overlaid with those of the session.
func completionTree(constants map[string]any) map[string]any {
	tree := lang.HostConstants()

	mergeTree(tree, constants)

	return tree
}

// mergeTree merges src into dst, recursing where both hold a mapping and
// splitting dotted keys into nested mappings.
func mergeTree(dst, src map[string]any) {
	for k, v := range src {
		if head, rest, ok := strings.Cut(k, "."); ok {
			v, k = map[string]any{rest: v}, head
		}

		sm, sok := v.(map[string]any)
		dm, dok := dst[k].(map[string]any)

		if sok && dok {
			dm = maps.Clone(dm)
			mergeTree(dm, sm)
			dst[k] = dm

			continue
		}

		dst[k] = v
	}
}

// childCandidates returns the completions for a word under parent. Top-level
// words complete to functions and constants; words after a dot complete to
// the members of the constant named by the parent path, or to the functions
// callable in method form on any other receiver.
func (m model) childCandidates(parent string, member bool) []string {
	if !member {
		names := slices.Concat(m.functions.Names(), slices.Collect(maps.Keys(m.tree)))
		if m.hasLast {
			names = append(names, lastResult)
		}

		return names
	}

	if parent == "" {
		return m.functions.Names()
	}

	var node any = m.tree

	for seg := range strings.SplitSeq(parent, ".") {
		obj, ok := node.(map[string]any)
		if !ok {
			return m.functions.Names()
		}

		if node, ok = obj[seg]; !ok {
			return m.functions.Names()
		}
	}

	if obj, ok := node.(map[string]any); ok {
		return slices.Sorted(maps.Keys(obj))
	}

	return m.functions.Names()
}

// computeMatches calculates the fuzzy matches for the word at the cursor,
// ranked best-first, with the candidate list and the word boundaries. An
// empty top-level word has no matches; an empty word after a dot matches
// every member.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		parent, member := parentPath(input, wordStart)
		candidates = m.childCandidates(parent, member)

		if word == "" {
			if !member || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. The selected candidate (when tabbing) uses the selected
// style.
func (m model) renderCandidateBar() string {
	if len(m.matches) == 0 || m.width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(ellipsis) + lipgloss.Width(sep)

	var b strings.Builder

	used := 0

	for i, match := range m.matches {
		rendered := m.renderCandidate(match, m.tabActive && i == m.suggIdx)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += lipgloss.Width(sep)
		}

		if i > 0 && i < len(m.matches)-1 && used+w+reserve > m.width {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted. Functions are displayed with a "()" suffix.
func (m model) renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, suggestionStyle.Bold(true)
	if selected {
		base, highlight = selectedStyle, selectedStyle.Bold(true)
	}

	var b strings.Builder

	// MatchedIndexes are byte offsets into Str.
	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if _, ok := m.functions.Lookup(match.Str); ok {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
