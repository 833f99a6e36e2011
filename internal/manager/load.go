package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SRI-AIC/valet-sub000/internal/extract/tokentest"
	"github.com/SRI-AIC/valet-sub000/internal/rulelang"
)

// LoadOptions configures how a rule file (and anything it imports) is
// loaded into a Manager tree.
type LoadOptions struct {
	BuiltinDataDir    string
	AllowRedefinition bool
}

// LoadFile reads the rule file at path, parses every statement it contains
// via rulelang, and registers each into a fresh Manager, recursing into any
// `<-` imports and lexicon imports it encounters.
func LoadFile(path string, opts LoadOptions) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manager: reading %s: %w", path, err)
	}
	m := New(filepath.Base(path))
	m.SourceDir = filepath.Dir(path)
	m.BuiltinDataDir = opts.BuiltinDataDir
	m.AllowRedefinition = opts.AllowRedefinition
	if err := m.loadSource(string(data), opts); err != nil {
		return nil, fmt.Errorf("manager: loading %s: %w", path, err)
	}
	return m, nil
}

func (m *Manager) loadSource(src string, opts LoadOptions) error {
	p := rulelang.New(src)
	for _, region := range p.Regions() {
		switch r := region.(type) {
		case *rulelang.Statement:
			if err := m.registerStatement(r, opts); err != nil {
				return err
			}
		case *rulelang.BrokenRegion:
			// A malformed statement is not registered; the statements
			// around it still load.
		}
	}
	return nil
}

func (m *Manager) registerStatement(stmt *rulelang.Statement, opts LoadOptions) error {
	name := stmt.Name()
	expr := stmt.Expression()
	switch {
	case stmt.Op == string(rulelang.OpTest):
		return m.DefineTest(name, expr, stmt.Bindings)
	case stmt.Op == string(rulelang.OpPhrase):
		return m.DefinePhrase(name, expr, false, stmt.Bindings)
	case stmt.Op == string(rulelang.OpPhraseI):
		return m.DefinePhrase(name, expr, true, stmt.Bindings)
	case stmt.Op == string(rulelang.OpParse):
		return m.DefineParse(name, expr, stmt.Bindings)
	case stmt.Op == string(rulelang.OpCoord):
		return m.DefineCoord(name, expr, stmt.Bindings)
	case stmt.Op == string(rulelang.OpFrame):
		return m.DefineFrame(name, expr)
	case stmt.Op == string(rulelang.OpImport):
		return m.registerImport(name, expr, opts)
	case strings.HasPrefix(stmt.Op, rulelang.OpLexiconPrefix):
		return m.registerLexicon(name, expr)
	case stmt.Op == "":
		// A `name(args) = body` macro definition. Macro expansion at call
		// sites is not implemented: see DESIGN.md's Open Question decision.
		return nil
	default:
		return fmt.Errorf("unknown statement operator %q for %q", stmt.Op, name)
	}
}

func (m *Manager) registerImport(alias, pathExpr string, opts LoadOptions) error {
	resolved, err := rulelang.ResolveImportPath(strings.TrimSpace(pathExpr), m.SourceDir, opts.BuiltinDataDir)
	if err != nil {
		return err
	}
	child, err := LoadFile(resolved, opts)
	if err != nil {
		return err
	}
	m.Imports[alias] = child
	return nil
}

func (m *Manager) registerLexicon(labelsField, pathExpr string) error {
	resolved, err := rulelang.ResolveImportPath(strings.TrimSpace(pathExpr), m.SourceDir, m.BuiltinDataDir)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return err
	}

	var tests map[string]tokentest.TokenTest
	if strings.HasSuffix(resolved, ".json") {
		tests, err = tokentest.ParseJSONImport(data)
	} else {
		tests, err = tokentest.ParseClusterImport(labelsField, string(data))
	}
	if err != nil {
		return err
	}
	for name, tt := range tests {
		if err := m.DefineLexiconTest(name, tt); err != nil {
			return err
		}
	}
	return nil
}
