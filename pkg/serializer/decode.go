package serializer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

// DecodeFlat parses data as a single JSON object whose member values are all strings.
// Nested objects, arrays, numbers, booleans, null, duplicate names and trailing
// data are rejected with a *DecodeError.
func DecodeFlat(data []byte) (map[string]string, error) {
	pairs, err := decodeFlat(data)
	if err != nil {
		return nil, &DecodeError{Input: string(data), Err: err}
	}
	return pairs, nil
}

func decodeFlat(data []byte) (map[string]string, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))

	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	if tok.Kind() != '{' {
		return nil, fmt.Errorf("expected object, found %s", tok.Kind())
	}

	pairs := make(map[string]string)
	for dec.PeekKind() != '}' {
		nameTok, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		// Tokens are voided by the next decoder call.
		name := nameTok.String()

		if kind := dec.PeekKind(); kind != '"' {
			if kind == 0 {
				// Let ReadToken surface the syntax error.
				if _, err := dec.ReadToken(); err != nil {
					return nil, err
				}
			}
			return nil, fmt.Errorf("value of %q must be a string, found %s", name, kind)
		}

		value, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		pairs[name] = value.String()
	}

	// consume '}'
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}

	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("unexpected data after top-level object")
		}
		return nil, err
	}

	return pairs, nil
}
