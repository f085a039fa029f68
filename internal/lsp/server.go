// Package lsp serves the IDE wire protocol over stdio: Content-Length
// framed JSON-RPC in, translated diagnostics out. The transform pipeline
// itself lives in the workspace coordinator; the server only routes.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"xcsc/internal/diag"
	"xcsc/internal/transform"
	"xcsc/internal/version"
	"xcsc/internal/workspace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// DownstreamFunc produces raw derived-file diagnostics for a payload. The
// language server is transport for someone else's compiler; this hook is
// where that compiler plugs in.
type DownstreamFunc func(ctx context.Context, payload *transform.Payload, derivedPath string) []diag.Downstream

// ServerOptions configures server behavior.
type ServerOptions struct {
	Coordinator *workspace.Coordinator
	Translator  *diag.Translator
	Downstream  DownstreamFunc
	Logger      *zap.SugaredLogger
}

// Server handles stdio JSON-RPC.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu                sync.Mutex
	openDocs          map[string]string // keyed by canonical URI
	shutdownRequested bool

	coord      *workspace.Coordinator
	translator *diag.Translator
	downstream DownstreamFunc
	logger     *zap.SugaredLogger
	baseCtx    context.Context
}

// NewServer constructs a server over the given streams.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	s := &Server{
		in:         bufio.NewReader(in),
		out:        bufio.NewWriter(out),
		openDocs:   make(map[string]string),
		coord:      opts.Coordinator,
		translator: opts.Translator,
		downstream: opts.Downstream,
		logger:     opts.Logger,
	}
	s.coord.OnFileTransformed(s.publishFor)
	return s
}

// Run serves requests until an "exit" notification or the end of the input
// stream; "shutdown" only marks the session so that a later "exit" is clean.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// Framing failure: report and keep reading; the stream may
			// recover at the next header.
			s.logger.Warnw("framing error", "error", err)
			if sendErr := s.sendError(nil, -32700, err.Error()); sendErr != nil {
				return sendErr
			}
			continue
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			if sendErr := s.sendError(nil, -32700, "parse error"); sendErr != nil {
				return sendErr
			}
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			if errors.Is(err, ErrExit) || errors.Is(err, ErrExitWithoutShutdown) {
				return err
			}
			s.logger.Errorw("handler failed", "method", msg.Method, "error", err)
			if len(msg.ID) > 0 {
				if sendErr := s.sendError(msg.ID, -32603, err.Error()); sendErr != nil {
					return sendErr
				}
			}
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		s.mu.Lock()
		requested := s.shutdownRequested
		s.mu.Unlock()
		if requested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync:   1,
			HoverProvider:      true,
			CompletionProvider: completionOptions{ResolveProvider: true},
		},
		ServerInfo: serverInfo{
			Name:    "xcsc",
			Version: version.Version,
		},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.coord.Close()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	path := uriToPath(uri)
	if path == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = params.TextDocument.Text
	s.mu.Unlock()
	s.coord.SetOverlay(path, params.TextDocument.Text)
	s.coord.FileChanged(path)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	path := uriToPath(uri)
	if path == "" {
		return nil
	}
	s.mu.Lock()
	text := applyChanges(s.openDocs[uri], params.ContentChanges)
	s.openDocs[uri] = text
	s.mu.Unlock()
	s.coord.SetOverlay(path, text)
	s.coord.FileChanged(path)
	return nil
}

// publishFor runs the downstream hook for a fresh transform and publishes
// the translated set against the original file.
func (s *Server) publishFor(payload *transform.Payload) {
	uri := pathToURI(payload.File)
	var raw []diag.Downstream
	if s.downstream != nil {
		raw = s.downstream(s.baseCtx, payload, s.coord.Writer().DerivedPath(payload.File))
	}

	src := s.sourceText(payload.File)
	list := make([]lspDiagnostic, 0, len(raw))
	for _, d := range raw {
		translated, ok := s.translator.Translate(diag.TranslateInput{
			Diag:       d,
			Derived:    payload.Content,
			Maps:       payload.SourceMaps,
			SourcePath: payload.File,
			Source:     src,
		})
		if !ok {
			continue
		}
		list = append(list, lspDiagnostic{
			Range: lspRange{
				Start: positionForOffset(src, translated.StartOffset),
				End:   positionForOffset(src, translated.EndOffset),
			},
			Severity: lspSeverity(translated.Severity),
			Code:     translated.Code,
			Source:   "xcsc",
			Message:  translated.Message,
		})
	}
	if err := s.sendPublish(uri, list); err != nil {
		s.logger.Warnw("publish failed", "uri", uri, "error", err)
	}
}

func (s *Server) sourceText(path string) string {
	uri := pathToURI(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openDocs[uri]
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	var rawID any
	if len(id) > 0 {
		rawID = json.RawMessage(id)
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      rawID,
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	}
	return s.send(msg)
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}
