package manager

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/SRI-AIC/valet-sub000/internal/extract/regexir"
	"github.com/SRI-AIC/valet-sub000/internal/extract/tokentest"
	"github.com/SRI-AIC/valet-sub000/internal/rulelang"
)

func (m *Manager) addEntry(name string, e *entry) error {
	if _, exists := m.entries[name]; exists && !m.AllowRedefinition {
		return &RedefinitionError{Name: name}
	}
	if _, exists := m.entries[name]; !exists {
		m.order = append(m.order, name)
	}
	m.entries[name] = e
	m.invalidate()
	return nil
}

// DefineTest registers a `name: expr` token-test statement.
func (m *Manager) DefineTest(name, expr string, substitutions map[string]string) error {
	return m.addEntry(name, &entry{kind: KindTest, name: name, testExpr: expr, substitutions: substitutions})
}

// DefinePhrase registers a `name -> expr` (or `name i-> expr`) phrase
// statement. The expression's surface syntax is parsed to an IR node
// immediately, so a malformed expression is reported at load time rather
// than on first use; compiling that node into an automaton stays lazy.
func (m *Manager) DefinePhrase(name, expr string, caseInsensitive bool, substitutions map[string]string) error {
	node, err := regexir.Parse(expr)
	if err != nil {
		return fmt.Errorf("manager: defining %q: %w", name, err)
	}
	return m.addEntry(name, &entry{kind: KindPhrase, name: name, node: node, caseInsensitive: caseInsensitive, substitutions: substitutions})
}

// DefineParse registers a `name ^ expr` dependency-arc statement.
func (m *Manager) DefineParse(name, expr string, substitutions map[string]string) error {
	node, err := regexir.Parse(expr)
	if err != nil {
		return fmt.Errorf("manager: defining %q: %w", name, err)
	}
	return m.addEntry(name, &entry{kind: KindParse, name: name, node: node, substitutions: substitutions})
}

// DefineCoord registers a `name ~ expr` coordinator statement.
func (m *Manager) DefineCoord(name, expr string, substitutions map[string]string) error {
	return m.addEntry(name, &entry{kind: KindCoord, name: name, coordExpr: expr, substitutions: substitutions})
}

// DefineFrame registers a `name $ expr` frame statement.
func (m *Manager) DefineFrame(name, expr string) error {
	return m.addEntry(name, &entry{kind: KindFrame, name: name, frameExpr: expr})
}

// DefineLexiconTest registers an already-constructed token test, as
// produced by a cluster or JSON lexicon import, so it skips tokentest.Parse
// entirely.
func (m *Manager) DefineLexiconTest(name string, tt tokentest.TokenTest) error {
	e := &entry{kind: KindTest, name: name, test: tt}
	e.once.Do(func() {}) // pre-fire: compile() becomes a no-op for this entry
	return m.addEntry(name, e)
}

// readWordFile resolves path through rulelang.ResolveImportPath (against
// the rule file's directory and BuiltinDataDir) and reads it as one
// whitespace-trimmed word per non-blank line, the format `f{path}` atoms
// expect, caching the result by resolved path.
func (m *Manager) readWordFile(path string) ([]string, error) {
	resolved, err := rulelang.ResolveImportPath(path, m.SourceDir, m.BuiltinDataDir)
	if err != nil {
		return nil, err
	}
	if words, ok := m.wordFiles[resolved]; ok {
		return words, nil
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	m.wordFiles[resolved] = words
	return words, nil
}
