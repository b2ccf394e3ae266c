package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"scrapebridge/lib/configutil"
	"scrapebridge/lib/jsonrpc"

	"github.com/mazen160/go-random"
)

type Config struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// workerClient wraps a spawned worker process and the line protocol
// it speaks.
type workerClient struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
}

func spawnWorker(ctx context.Context) (*workerClient, error) {
	cmd := exec.CommandContext(ctx, *workerPath)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	err = cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("spawn worker: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("worker exited before announcing readiness")
	}
	var ready struct {
		Status string `json:"status"`
	}
	err = json.Unmarshal(scanner.Bytes(), &ready)
	if err != nil || ready.Status != "ready" {
		return nil, fmt.Errorf("unexpected startup line: %s", scanner.Text())
	}

	return &workerClient{cmd: cmd, stdin: stdin, scanner: scanner}, nil
}

func (w *workerClient) close() {
	w.stdin.Close()
	w.cmd.Wait()
}

// call issues one request and decodes the inner result payload.
func (w *workerClient) call(method string, params any, result any) error {
	id, err := random.String(8)
	if err != nil {
		return err
	}
	rawID, err := json.Marshal(id)
	if err != nil {
		return err
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return err
	}

	line, err := json.Marshal(jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		Method:  method,
		Params:  rawParams,
		ID:      rawID,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w.stdin, "%s\n", line)
	if err != nil {
		return err
	}

	if !w.scanner.Scan() {
		return fmt.Errorf("worker closed the stream mid-call")
	}
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *jsonrpc.Error  `json:"error"`
		ID     json.RawMessage `json:"id"`
	}
	err = json.Unmarshal(w.scanner.Bytes(), &resp)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s failed: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
	}
	return json.Unmarshal(resp.Result, result)
}

// initializedWorker spawns the worker and authenticates it with the
// credentials from config.json5.
func initializedWorker(ctx context.Context) (*workerClient, error) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		return nil, fmt.Errorf("read config.json5: %w", err)
	}

	worker, err := spawnWorker(ctx)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Type    string `json:"type"`
	}
	err = worker.call("initialize", map[string]string{
		"username": cfg.Username,
		"email":    cfg.Email,
		"password": cfg.Password,
	}, &result)
	if err != nil {
		worker.close()
		return nil, err
	}
	if !result.Success {
		worker.close()
		return nil, fmt.Errorf("initialize rejected (%s): %s", result.Type, result.Error)
	}
	return worker, nil
}
