// Package rulelsp implements just enough of the Language Server Protocol to
// turn rulelang parse output into editor diagnostics: initialize,
// textDocument/didOpen, textDocument/didChange (full-document sync), and
// textDocument/publishDiagnostics for every broken region. Completion,
// hover, and go-to-definition are not implemented — see DESIGN.md.
package rulelsp

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/SRI-AIC/valet-sub000/internal/obs"
	"github.com/SRI-AIC/valet-sub000/internal/rulelang"
)

// Server is a minimal rule-file language server.
type Server struct {
	log *obs.Logger

	conn   jsonrpc2.Conn
	client protocol.Client

	capabilities protocol.ServerCapabilities

	mu   sync.Mutex
	docs map[string]string // uri -> last-known full text

	cancel context.CancelFunc
}

// NewServer builds a Server that logs through log (obs.Nop() is fine for
// tests that don't care about log output).
func NewServer(log *obs.Logger) *Server {
	return &Server{
		log:  log,
		docs: make(map[string]string),
		capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
		},
	}
}

// Run drives the server over rwc (typically stdin/stdout) until ctx is
// canceled or an `exit` notification arrives.
func (s *Server) Run(ctx context.Context, rwc interface {
	Read([]byte) (int, error)
	Write([]byte) (int, error)
	Close() error
}) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	stream := jsonrpc2.NewStream(rwc)
	conn := jsonrpc2.NewConn(stream)
	s.conn = conn

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	s.client = protocol.ClientDispatcher(conn, zapLogger)

	conn.Go(ctx, s.handler())
	<-ctx.Done()
	return conn.Close()
}

func (s *Server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case protocol.MethodInitialize:
			return s.handleInitialize(ctx, reply, req)
		case protocol.MethodInitialized:
			return reply(ctx, nil, nil)
		case protocol.MethodShutdown:
			return reply(ctx, nil, nil)
		case protocol.MethodExit:
			if err := reply(ctx, nil, nil); err != nil {
				s.log.Error("replying to exit", err)
			}
			if s.cancel != nil {
				s.cancel()
			}
			return nil
		case protocol.MethodTextDocumentDidOpen:
			return s.handleDidOpen(ctx, reply, req)
		case protocol.MethodTextDocumentDidChange:
			return s.handleDidChange(ctx, reply, req)
		case protocol.MethodTextDocumentDidClose:
			return s.handleDidClose(ctx, reply, req)
		default:
			return reply(ctx, nil, nil)
		}
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: "bad initialize params"})
	}
	result := protocol.InitializeResult{
		Capabilities: s.capabilities,
		ServerInfo:   &protocol.ServerInfo{Name: "rulelsp", Version: "0.1.0"},
	}
	return reply(ctx, result, nil)
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: "bad didOpen params"})
	}
	docURI := string(params.TextDocument.URI)
	s.setDoc(docURI, params.TextDocument.Text)
	s.publishDiagnostics(ctx, docURI)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: "bad didChange params"})
	}
	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}
	docURI := string(params.TextDocument.URI)
	// Full-document sync: the last change carries the entire new text.
	content := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.setDoc(docURI, content)
	s.publishDiagnostics(ctx, docURI)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: "bad didClose params"})
	}
	s.mu.Lock()
	delete(s.docs, string(params.TextDocument.URI))
	s.mu.Unlock()
	return reply(ctx, nil, nil)
}

func (s *Server) setDoc(docURI, text string) {
	s.mu.Lock()
	s.docs[docURI] = text
	s.mu.Unlock()
}

// Diagnostics parses text and returns one protocol.Diagnostic per broken
// region rulelang finds, exported so tests (and cmd/valet's offline `rules
// lint`) can reuse it without a live connection.
func Diagnostics(text string) []protocol.Diagnostic {
	p := rulelang.New(text)
	var out []protocol.Diagnostic
	for _, region := range p.Regions() {
		broken, ok := region.(*rulelang.BrokenRegion)
		if !ok {
			continue
		}
		out = append(out, protocol.Diagnostic{
			Range:    offsetRange(text, broken.StartOffset(), broken.EndOffset()),
			Severity: protocol.DiagnosticSeverityError,
			Source:   "rulelang",
			Message:  broken.Message,
		})
	}
	return out
}

func (s *Server) publishDiagnostics(ctx context.Context, docURI string) {
	s.mu.Lock()
	text := s.docs[docURI]
	s.mu.Unlock()

	params := protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(docURI),
		Diagnostics: Diagnostics(text),
	}
	if s.client == nil {
		return
	}
	if err := s.client.PublishDiagnostics(ctx, &params); err != nil {
		s.log.Error("publishing diagnostics", err)
	}
}

// offsetRange converts a pair of byte offsets into text to a zero-based
// line/character LSP range.
func offsetRange(text string, start, end int) protocol.Range {
	return protocol.Range{
		Start: offsetPosition(text, start),
		End:   offsetPosition(text, end),
	}
}

func offsetPosition(text string, offset int) protocol.Position {
	line, col := 0, 0
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return protocol.Position{Line: uint32(line), Character: uint32(col)}
}

// uriToPath turns a file:// URI back into a filesystem path.
func uriToPath(u string) string {
	return uri.URI(u).Filename()
}

// Stdio implements io.ReadWriteCloser over the process's stdin/stdout, the
// transport cmd/valet's `lsp` subcommand hands to Run.
type Stdio struct{}

func (Stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (Stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (Stdio) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
