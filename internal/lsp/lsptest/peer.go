// Package lsptest provides an in-memory editor peer for exercising the
// LSP transport and server in tests.
package lsptest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Message is a decoded JSON-RPC message of any shape.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// IsRequest reports whether m is a request (method and id).
func (m *Message) IsRequest() bool { return m.Method != "" && len(m.ID) > 0 }

// IsNotification reports whether m is a notification.
func (m *Message) IsNotification() bool { return m.Method != "" && len(m.ID) == 0 }

// Peer plays the editor side of a connection.
type Peer struct {
	// ServerIn and ServerOut are handed to the transport under test.
	ServerIn  io.Reader
	ServerOut io.Writer

	toServer   *io.PipeWriter
	fromServer *bufio.Reader
	serverOutW *io.PipeWriter
	serverInR  *io.PipeReader

	writeMu sync.Mutex
}

// NewPeer creates a connected editor peer.
func NewPeer() *Peer {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	return &Peer{
		ServerIn:   inR,
		ServerOut:  outW,
		toServer:   inW,
		fromServer: bufio.NewReader(outR),
		serverOutW: outW,
		serverInR:  inR,
	}
}

// Closer returns a closer for the server side of the connection.
func (p *Peer) Closer() io.Closer {
	return closerFunc(func() error {
		_ = p.serverInR.Close()
		return p.serverOutW.Close()
	})
}

// CloseInput ends the stream the server reads, as an editor exiting would.
func (p *Peer) CloseInput() error {
	return p.toServer.Close()
}

// Request sends a request with a numeric id.
func (p *Peer) Request(id int, method string, params any) error {
	return p.write(map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params})
}

// Notify sends a notification.
func (p *Peer) Notify(method string, params any) error {
	return p.write(map[string]any{"jsonrpc": "2.0", "method": method, "params": params})
}

// Respond answers a server request identified by id.
func (p *Peer) Respond(id json.RawMessage, result any) error {
	return p.write(map[string]any{"jsonrpc": "2.0", "id": id, "result": result})
}

// RespondError answers a server request with an error.
func (p *Peer) RespondError(id json.RawMessage, code int, msg string) error {
	return p.write(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]any{"code": code, "message": msg},
	})
}

// WriteRaw sends body with a Content-Length header.
func (p *Peer) WriteRaw(body []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := fmt.Fprintf(p.toServer, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err := p.toServer.Write(body)
	return err
}

// WriteHeader sends a raw header block with no body, for exercising
// framing errors.
func (p *Peer) WriteHeader(header string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, err := io.WriteString(p.toServer, header)
	return err
}

func (p *Peer) write(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.WriteRaw(data)
}

// Read returns the next message the server wrote.
func (p *Peer) Read() (*Message, error) {
	var length int
	for {
		line, err := p.fromServer.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(name, "Content-Length") {
			length, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, err
			}
		}
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(p.fromServer, body); err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReadUntil reads messages until match returns true, returning the
// matching message and everything read before it.
func (p *Peer) ReadUntil(match func(*Message) bool) (*Message, []*Message, error) {
	var skipped []*Message
	for {
		msg, err := p.Read()
		if err != nil {
			return nil, skipped, err
		}
		if match(msg) {
			return msg, skipped, nil
		}
		skipped = append(skipped, msg)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
