// Package jsonrpc holds the JSON-RPC 2.0 envelopes and error codes of
// the worker's wire protocol. The id is kept as raw JSON so string,
// number and null ids all echo back byte for byte.
package jsonrpc

import "encoding/json"

const Version = "2.0"

const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
	// the worker could not construct its capability at startup
	CodeCapabilityUnavailable = -32001
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Response carries either a result or an error, never both. A nil ID
// marshals to null, which is what a parse error must carry.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func NewResult(id json.RawMessage, result any) Response {
	return Response{JSONRPC: Version, Result: result, ID: id}
}

func NewError(id json.RawMessage, code int, message string) Response {
	return Response{
		JSONRPC: Version,
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	}
}

func NewErrorData(id json.RawMessage, code int, message string, data string) Response {
	return Response{
		JSONRPC: Version,
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	}
}
