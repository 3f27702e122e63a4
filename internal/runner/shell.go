package runner

import "strings"

// ShellJoin renders an argv as a single shell-style string for display and
// transcripts. Arguments containing whitespace or quote characters are
// single-quoted. The result is never fed back to a shell; execution always
// uses the argv directly.
func ShellJoin(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'\\$&|;<>()*?[]#~%{}") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
