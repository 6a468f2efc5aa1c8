package config

import "strings"

// stripComments removes full-line # comments. inline # is kept, selectors use it.
func stripComments(content string) string {
	// normalize line endings: convert CRLF to LF
	content = strings.ReplaceAll(content, "\r\n", "\n")

	lines := make([]string, 0, strings.Count(content, "\n")+1)
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// commentOut prefixes every key line with "# ", making an installed config a template
// that keeps following the embedded defaults until a key is uncommented.
func commentOut(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines[i] = "# " + line
	}
	return strings.Join(lines, "\n")
}
