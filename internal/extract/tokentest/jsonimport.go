package tokentest

import "encoding/json"

// ParseJSONImport parses a `j{path}` definition: a JSON object mapping
// test name to a word list, producing one membership test per key.
func ParseJSONImport(data []byte) (map[string]TokenTest, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]TokenTest, len(raw))
	for name, words := range raw {
		out[name] = NewMembership(words, false, false)
	}
	return out, nil
}
