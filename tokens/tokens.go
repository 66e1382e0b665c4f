// Package tokens implements preservation of inline markers in mod/game
// text across translation.
//
// Mod localization strings routinely carry substrings that a translation
// engine would mangle: parenthetical stage directions, bracketed control
// markers like [color=red] or 【イベント】, and emoticons such as (:3) or ^_^.
// Extract removes those substrings before the text is submitted to the
// API and Restore re-inserts them verbatim afterwards, so the engine only
// ever sees the translatable prose.
package tokens

import (
	"regexp"
	"strings"
)

// Token is a single preserved substring.
type Token struct {
	// Text is the token exactly as it appeared in the source string.
	Text string
	// Leading is true when the token was at the very start of the string
	// (after whitespace). Leading tokens are re-inserted as a prefix,
	// everything else as a suffix.
	Leading bool
}

// Preserved substring classes, tried in order on each match position:
//   - parenthetical content, ASCII and fullwidth
//   - bracketed content: [], 【】, 「」, 《》
//   - emoticon/symbol runs that sit outside any bracket pair
//
// The heart and smiley classes are boundary-guarded so comparisons such
// as HP<30 or times like 12:30 never count as emoticons.
var pattern = regexp.MustCompile(strings.Join([]string{
	`\([^()]*\)`,
	`（[^（）]*）`,
	`\[[^\[\]]*\]`,
	`【[^【】]*】`,
	`「[^「」]*」`,
	`《[^《》]*》`,
	`\B<3\b`,
	`\^[_\-o~.]*\^`,
	`[:;=8][-'^]?[3DdPpOo]\b`,
	`[:;=8][-'^]?[)(\\/|*]`,
	`[♪♫★☆♥♡●◎◆■□▲△▼▽…→←↑↓]+`,
}, "|"))

var spaceRun = regexp.MustCompile(`[ \t]{2,}`)

// HasTokens reports whether s contains any preservable token.
func HasTokens(s string) bool {
	return pattern.MatchString(s)
}

// Extract removes every preserved token from s and returns the remaining
// translatable text together with the tokens in order of appearance.
// Whitespace runs left behind by token removal are collapsed.
func Extract(s string) (string, []Token) {
	locs := pattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s, nil
	}

	var toks []Token
	var b strings.Builder
	prev := 0
	for _, loc := range locs {
		text := s[loc[0]:loc[1]]
		leading := strings.TrimSpace(s[:loc[0]]) == ""
		toks = append(toks, Token{Text: text, Leading: leading})
		b.WriteString(s[prev:loc[0]])
		prev = loc[1]
	}
	b.WriteString(s[prev:])

	stripped := spaceRun.ReplaceAllString(b.String(), " ")
	stripped = strings.TrimSpace(stripped)
	return stripped, toks
}

// Restore re-inserts tokens around the translated text: leading tokens
// become a prefix, all other tokens a suffix, each in original order and
// byte-for-byte unchanged.
func Restore(translated string, toks []Token) string {
	if len(toks) == 0 {
		return translated
	}

	var prefix, suffix []string
	for _, t := range toks {
		if t.Leading {
			prefix = append(prefix, t.Text)
		} else {
			suffix = append(suffix, t.Text)
		}
	}

	parts := make([]string, 0, len(prefix)+len(suffix)+1)
	parts = append(parts, prefix...)
	if translated != "" {
		parts = append(parts, translated)
	}
	parts = append(parts, suffix...)
	return strings.Join(parts, " ")
}
