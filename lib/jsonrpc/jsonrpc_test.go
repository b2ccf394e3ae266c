package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultMarshalling(t *testing.T) {
	resp := NewResult(json.RawMessage(`42`), map[string]any{"success": true})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","result":{"success":true},"id":42}`, string(raw))
}

func TestErrorMarshalling(t *testing.T) {
	resp := NewError(json.RawMessage(`"abc"`), CodeMethodNotFound, "Method not found: delete")
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(
		t,
		`{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found: delete"},"id":"abc"}`,
		string(raw),
	)
}

func TestNilIDMarshalsToNull(t *testing.T) {
	resp := NewError(nil, CodeParseError, "Parse error: bad input")
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	id, present := decoded["id"]
	require.True(t, present, "id must be present even for parse errors")
	require.Nil(t, id)
}

func TestIDEchoedVerbatim(t *testing.T) {
	// string, number, null; all must round-trip untouched
	for _, id := range []string{`"req-1"`, `17`, `null`, `3.5`} {
		var req Request
		err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"trending","id":`+id+`}`), &req)
		require.NoError(t, err)

		raw, err := json.Marshal(NewResult(req.ID, map[string]any{}))
		require.NoError(t, err)
		require.Contains(t, string(raw), `"id":`+id)
	}
}

func TestResponseHasResultXorError(t *testing.T) {
	raw, err := json.Marshal(NewResult(json.RawMessage(`1`), map[string]any{"ok": true}))
	require.NoError(t, err)
	require.NotContains(t, string(raw), `"error"`)

	raw, err = json.Marshal(NewErrorData(json.RawMessage(`1`), CodeInternalError, "Internal error: boom", "stack"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), `"result"`)
	require.Contains(t, string(raw), `"data":"stack"`)
}
