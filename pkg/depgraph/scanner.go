package depgraph

import (
	"strings"
	"unicode"
)

// scanImports extracts the module specifiers a file imports. It recognizes
// ES default/named/namespace imports, bare side-effect imports, and dynamic
// require calls, scanning line by line rather than pattern matching whole
// statements. An import clause that spans lines (a named list with one
// binding per line) is followed to the line carrying "from" and the
// specifier.
func scanImports(content string) []string {
	var targets []string
	seen := make(map[string]bool)

	add := func(spec string) {
		if spec != "" && !seen[spec] {
			seen[spec] = true
			targets = append(targets, spec)
		}
	}

	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		s := newLineScanner(lines[i])
		s.skipSpace()

		if !s.consumeKeyword("import") {
			// Dynamic requires can sit anywhere in a line.
			for _, spec := range scanRequireCalls(lines[i]) {
				add(spec)
			}
			continue
		}

		s.skipSpace()
		if spec, ok := s.readString(); ok {
			// Bare side-effect import: import "./setup"
			add(spec)
			continue
		}
		// Default, named, or namespace import: consume the clause up
		// to "from", then read the specifier.
		sawFrom := s.skipUntilKeyword("from")
		if sawFrom {
			s.skipSpace()
			if spec, ok := s.readString(); ok {
				add(spec)
				continue
			}
		}
		// The clause continues on following lines. Consume them until
		// the specifier turns up; a statement terminator before it
		// abandons the clause.
		for i+1 < len(lines) {
			i++
			c := newLineScanner(lines[i])
			c.skipSpace()
			if !sawFrom {
				sawFrom = c.skipUntilKeyword("from")
			}
			if sawFrom {
				c.skipSpace()
				if spec, ok := c.readString(); ok {
					add(spec)
					break
				}
			}
			if strings.ContainsRune(lines[i], ';') {
				break
			}
		}
	}

	return targets
}

// scanExports extracts exported identifiers: export declarations, export
// lists, and CommonJS module.exports / exports.x assignments.
func scanExports(content string) []string {
	var names []string
	seen := make(map[string]bool)

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		s := newLineScanner(line)
		s.skipSpace()

		if s.consumeKeyword("export") {
			s.skipSpace()
			if s.consume('{') {
				// Export list: export { a, b as c }
				for _, name := range splitExportList(s.rest()) {
					add(name)
				}
				continue
			}
			s.consumeKeyword("default")
			s.skipSpace()
			// Declaration forms: const/let/var/function/class/
			// interface/type/enum followed by the exported name.
			for _, kw := range []string{"abstract", "async", "const", "let", "var", "function", "class", "interface", "type", "enum"} {
				if s.consumeKeyword(kw) {
					s.skipSpace()
					if kw == "function" {
						s.consume('*')
						s.skipSpace()
					}
				}
			}
			add(s.readIdentifier())
			continue
		}

		// CommonJS forms.
		if s.consumeKeyword("module") {
			if s.consume('.') && s.consumeKeyword("exports") {
				s.skipSpace()
				if s.consume('.') {
					add(s.readIdentifier())
				} else {
					add("default")
				}
			}
			continue
		}
		if s.consumeKeyword("exports") {
			if s.consume('.') {
				add(s.readIdentifier())
			}
		}
	}

	return names
}

// scanRequireCalls finds every require("...") specifier in a line.
func scanRequireCalls(line string) []string {
	var specs []string
	for i := 0; i+7 <= len(line); i++ {
		if line[i:i+7] != "require" {
			continue
		}
		if i > 0 && isIdentChar(rune(line[i-1])) {
			continue
		}
		s := newLineScanner(line[i+7:])
		s.skipSpace()
		if !s.consume('(') {
			continue
		}
		s.skipSpace()
		if spec, ok := s.readString(); ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

// splitExportList parses the inside of an export list up to the closing
// brace, honoring "as" aliases (the alias is the exported name).
func splitExportList(body string) []string {
	if end := strings.IndexByte(body, '}'); end >= 0 {
		body = body[:end]
	}
	var names []string
	for _, part := range strings.Split(body, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if len(fields) == 3 && fields[1] == "as" {
			name = fields[2]
		}
		names = append(names, name)
	}
	return names
}

// lineScanner is a minimal cursor over one line of source.
type lineScanner struct {
	src string
	pos int
}

func newLineScanner(src string) *lineScanner {
	return &lineScanner{src: src}
}

func (s *lineScanner) skipSpace() {
	for s.pos < len(s.src) && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

func (s *lineScanner) consume(c byte) bool {
	if s.pos < len(s.src) && s.src[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

// consumeKeyword consumes kw only when it is a whole word at the cursor.
func (s *lineScanner) consumeKeyword(kw string) bool {
	end := s.pos + len(kw)
	if end > len(s.src) || s.src[s.pos:end] != kw {
		return false
	}
	if end < len(s.src) && isIdentChar(rune(s.src[end])) {
		return false
	}
	s.pos = end
	return true
}

// skipUntilKeyword advances past the next whole-word occurrence of kw,
// returning false if the line ends first.
func (s *lineScanner) skipUntilKeyword(kw string) bool {
	for s.pos < len(s.src) {
		if s.consumeKeyword(kw) {
			return true
		}
		s.pos++
	}
	return false
}

// readString reads a quoted string at the cursor and returns its contents.
func (s *lineScanner) readString() (string, bool) {
	if s.pos >= len(s.src) {
		return "", false
	}
	quote := s.src[s.pos]
	if quote != '\'' && quote != '"' && quote != '`' {
		return "", false
	}
	start := s.pos + 1
	for i := start; i < len(s.src); i++ {
		if s.src[i] == quote {
			s.pos = i + 1
			return s.src[start:i], true
		}
	}
	return "", false
}

// readIdentifier reads an identifier at the cursor, returning "" if the
// cursor is not on one.
func (s *lineScanner) readIdentifier() string {
	start := s.pos
	for s.pos < len(s.src) && isIdentChar(rune(s.src[s.pos])) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *lineScanner) rest() string {
	return s.src[s.pos:]
}

func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'
}
