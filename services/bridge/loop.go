package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"scrapebridge/lib/jsonrpc"
)

// lines are requests, not payloads, but a generous cap costs nothing
const maxLineSize = 10 * 1024 * 1024

// Loop owns the stdio framing: one JSON value per line in, one per
// line out, strictly sequential. It is the only writer to out, so no
// locking is needed.
type Loop struct {
	service *Service
	scanner *bufio.Scanner
	out     *bufio.Writer
}

func NewLoop(service *Service, in io.Reader, out io.Writer) *Loop {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Loop{
		service: service,
		scanner: scanner,
		out:     bufio.NewWriter(out),
	}
}

type readyMessage struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// emit writes one message as a single line and flushes immediately;
// the host process reads replies line by line and must never wait on
// a buffered one.
func (l *Loop) emit(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = l.out.Write(line)
	if err != nil {
		return err
	}
	err = l.out.WriteByte('\n')
	if err != nil {
		return err
	}
	return l.out.Flush()
}

// Run announces readiness, then serves requests until the input
// stream is exhausted. A malformed line produces a parse error
// response and the loop keeps going; only EOF or a broken output pipe
// end it.
func (l *Loop) Run(ctx context.Context) error {
	err := l.emit(readyMessage{Status: "ready", Version: Version})
	if err != nil {
		return err
	}

	for l.scanner.Scan() {
		line := bytes.TrimSpace(l.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req jsonrpc.Request
		err := json.Unmarshal(line, &req)
		if err != nil {
			slog.DebugContext(ctx, "dropping malformed request line", "err", err)
			protocolErrorCount.Add(ctx, 1)
			// id is null here: it could not be read off the line
			werr := l.emit(jsonrpc.NewError(nil, jsonrpc.CodeParseError, fmt.Sprintf("Parse error: %v", err)))
			if werr != nil {
				return werr
			}
			continue
		}

		werr := l.emit(l.service.HandleRequest(ctx, req))
		if werr != nil {
			return werr
		}
	}

	if err := l.scanner.Err(); err != nil {
		return fmt.Errorf("read request line: %w", err)
	}
	slog.InfoContext(ctx, "input stream closed, shutting down")
	return nil
}
