package adapter

import "strings"

// SplitScript splits a script into statements on delim. Delimiters inside
// single-quoted strings, double-quoted identifiers, dollar-quoted bodies
// ($$...$$, $tag$...$tag$) and comments do not split. Statements are
// trimmed and empty ones dropped.
func SplitScript(script, delim string) []string {
	delim = strings.TrimSpace(delim)
	if delim == "" {
		delim = ";"
	}
	s := &splitter{input: script, delim: delim}
	return s.split()
}

type splitter struct {
	input string
	delim string
	pos   int
}

func (s *splitter) split() []string {
	var (
		out   []string
		start int
	)
	for s.pos < len(s.input) {
		switch {
		case strings.HasPrefix(s.input[s.pos:], s.delim):
			out = appendStatement(out, s.input[start:s.pos])
			s.pos += len(s.delim)
			start = s.pos
		case s.at("--"):
			s.skipLineComment()
		case s.at("/*"):
			s.skipBlockComment()
		case s.input[s.pos] == '\'' || s.input[s.pos] == '"':
			s.skipQuoted(s.input[s.pos])
		case s.input[s.pos] == '$':
			s.skipDollarQuoted()
		default:
			s.pos++
		}
	}
	return appendStatement(out, s.input[start:])
}

func (s *splitter) at(prefix string) bool {
	return strings.HasPrefix(s.input[s.pos:], prefix)
}

// skipLineComment consumes up to, not including, the newline.
func (s *splitter) skipLineComment() {
	for s.pos < len(s.input) && s.input[s.pos] != '\n' {
		s.pos++
	}
}

func (s *splitter) skipBlockComment() {
	s.pos += 2
	for s.pos < len(s.input) {
		if s.at("*/") {
			s.pos += 2
			return
		}
		s.pos++
	}
}

// skipQuoted consumes a quoted run; a doubled quote is an escape.
func (s *splitter) skipQuoted(quote byte) {
	s.pos++
	for s.pos < len(s.input) {
		if s.input[s.pos] == quote {
			if s.pos+1 < len(s.input) && s.input[s.pos+1] == quote {
				s.pos += 2
				continue
			}
			s.pos++
			return
		}
		s.pos++
	}
}

// skipDollarQuoted consumes $tag$...$tag$. A '$' that does not open a tag
// ($1 placeholders) is consumed as a plain character.
func (s *splitter) skipDollarQuoted() {
	end := s.pos + 1
	for end < len(s.input) && isTagChar(s.input[end]) {
		end++
	}
	if end >= len(s.input) || s.input[end] != '$' || (end > s.pos+1 && isDigit(s.input[s.pos+1])) {
		s.pos++
		return
	}
	tag := s.input[s.pos : end+1]
	closing := strings.Index(s.input[end+1:], tag)
	if closing < 0 {
		s.pos = len(s.input)
		return
	}
	s.pos = end + 1 + closing + len(tag)
}

func isTagChar(ch byte) bool {
	return ch == '_' || isDigit(ch) || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func appendStatement(out []string, stmt string) []string {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return out
	}
	return append(out, stmt)
}
