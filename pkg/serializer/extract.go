package serializer

// ExtractJSON isolates a JSON object from framing bytes around it.
// It returns a copy of p from the last '{' up to and including the last '}'.
// Without a '{' the range starts at 0; without a '}' it runs to the end of p.
// Braces inside string literals are not special: the scan is a heuristic, not a parser.
func ExtractJSON(p []byte) []byte {
	start, finish := 0, len(p)
	for i, b := range p {
		switch b {
		case '{':
			start = i
		case '}':
			finish = i + 1
		}
	}

	if finish <= start {
		return []byte{}
	}

	out := make([]byte, finish-start)
	copy(out, p[start:finish])
	return out
}
