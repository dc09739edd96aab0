// Package lsp provides the Language Server Protocol wire layer for the
// header server.
//
// It contains the subset of LSP types the server exchanges with the editor
// and a Transport implementing JSON-RPC 2.0 over a byte stream with
// Content-Length framing.
//
// # Transport
//
// The transport is bidirectional. Requests and notifications from the
// editor are dispatched to a Handler, each on its own goroutine, so a slow
// handler never blocks the read loop. The server can issue its own requests
// with Call; the response is matched by ID and delivered to the caller.
//
//	t := lsp.NewTransport(os.Stdin, os.Stdout, nil)
//	err := t.Serve(ctx, handler)
//
// # URIs
//
// URIToFilePath converts file:// URIs to local paths. On Windows the
// leading slash before a drive letter ("/C:/src") is removed.
package lsp
