package engine

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites shape script source into something zygomys
// accepts:
//
//   - :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbol and cannot collide with user variables;
//   - kebab-case identifiers become snake_case, since zygomys reads a
//     hyphen as subtraction;
//   - ; line comments become // comments.
//
// String literals (double-quoted and backtick) pass through untouched.
func preprocessSource(source string) string {
	p := &preprocessor{src: []byte(source)}
	p.out = make([]byte, 0, len(source)+len(source)/4)
	for p.i < len(p.src) {
		switch c := p.src[p.i]; {
		case c == '"':
			p.quoted('"', true)
		case c == '`':
			p.quoted('`', false)
		case c == ';':
			p.comment()
		case c == ':' && p.i+1 < len(p.src) && p.src[p.i+1] == '=':
			p.emit(2)
		case c == ':' && p.i+1 < len(p.src) && isLetter(p.src[p.i+1]):
			p.keyword()
		case c == '-' && p.i > 0 && p.i+1 < len(p.src) &&
			isIdentChar(p.src[p.i-1]) && isLetter(p.src[p.i+1]):
			p.out = append(p.out, '_')
			p.i++
		default:
			p.emit(1)
		}
	}
	return string(p.out)
}

type preprocessor struct {
	src []byte
	out []byte
	i   int
}

// emit copies n bytes through unchanged.
func (p *preprocessor) emit(n int) {
	p.out = append(p.out, p.src[p.i:p.i+n]...)
	p.i += n
}

// quoted copies a string literal, including both delimiters.
func (p *preprocessor) quoted(delim byte, escapes bool) {
	p.emit(1)
	for p.i < len(p.src) && p.src[p.i] != delim {
		if escapes && p.src[p.i] == '\\' && p.i+1 < len(p.src) {
			p.emit(2)
			continue
		}
		p.emit(1)
	}
	if p.i < len(p.src) {
		p.emit(1)
	}
}

// comment turns a run of semicolons into // and copies the rest of the line.
func (p *preprocessor) comment() {
	p.out = append(p.out, '/', '/')
	for p.i < len(p.src) && p.src[p.i] == ';' {
		p.i++
	}
	for p.i < len(p.src) && p.src[p.i] != '\n' {
		p.emit(1)
	}
}

func (p *preprocessor) keyword() {
	j := p.i + 1
	for j < len(p.src) && isKWChar(p.src[j]) {
		j++
	}
	p.out = append(p.out, '"')
	p.out = append(p.out, kwPrefix...)
	p.out = append(p.out, p.src[p.i+1:j]...)
	p.out = append(p.out, '"')
	p.i = j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
