package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"scrapebridge/lib/scrapers/twitter"
	"scrapebridge/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T, stub *stubCapability, input string) []map[string]any {
	t.Helper()

	var out bytes.Buffer
	loop := NewLoop(NewService(stub), strings.NewReader(input), &out)
	require.NoError(t, loop.Run(context.Background()))

	var messages []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var msg map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &msg))
		messages = append(messages, msg)
	}
	return messages
}

func TestLoopAnnouncesReadiness(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:bridge")
	defer cleanup()

	messages := runLoop(t, &stubCapability{}, "")
	require.Len(t, messages, 1)
	require.Equal(t, "ready", messages[0]["status"])
	require.Equal(t, "1.0.0", messages[0]["version"])
}

func TestLoopEndToEnd(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:bridge")
	defer cleanup()

	stub := &stubCapability{tweets: []twitter.RawTweet{
		rawTweet("1001", "alice"),
		rawTweet("1002", "bob"),
	}}
	input := `{"jsonrpc":"2.0","method":"initialize","params":{"username":"u","email":"e","password":"p"},"id":1}
{"jsonrpc":"2.0","method":"search","params":{"query":"cats","count":2},"id":2}
`
	messages := runLoop(t, stub, input)
	require.Len(t, messages, 3) // ready + two responses

	first := messages[1]
	require.EqualValues(t, 1, first["id"])
	require.Equal(t, true, first["result"].(map[string]any)["success"])

	second := messages[2]
	require.EqualValues(t, 2, second["id"])
	result := second["result"].(map[string]any)
	require.Equal(t, true, result["success"])
	require.Len(t, result["tweets"], 2)
	require.EqualValues(t, 2, result["count"])
	require.Equal(t, "cats", result["query"])
}

func TestLoopSurvivesMalformedLines(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:bridge")
	defer cleanup()

	stub := &stubCapability{trends: []twitter.RawTrend{{Name: "#one", URL: "u"}}}
	input := `{"jsonrpc":"2.0","method":"initialize","params":{"username":"u","email":"e","password":"p"},"id":1}
this is not json {{{
{"jsonrpc":"2.0","method":"trending","params":{"count":1},"id":2}
`
	messages := runLoop(t, stub, input)
	require.Len(t, messages, 4)

	parseErr := messages[2]
	require.Nil(t, parseErr["id"], "parse errors carry a null id")
	errObj := parseErr["error"].(map[string]any)
	require.EqualValues(t, -32700, errObj["code"])
	require.Contains(t, errObj["message"], "Parse error")

	after := messages[3]
	require.EqualValues(t, 2, after["id"])
	result := after["result"].(map[string]any)
	require.Equal(t, true, result["success"], "the loop must keep serving after garbage input")
	require.EqualValues(t, 1, result["count"])
}

func TestLoopIgnoresBlankLines(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:bridge")
	defer cleanup()

	input := "\n   \n\t\n"
	messages := runLoop(t, &stubCapability{}, input)
	require.Len(t, messages, 1, "blank lines produce no responses")
}

func TestLoopResponsesAreSingleLines(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:bridge")
	defer cleanup()

	stub := &stubCapability{tweets: []twitter.RawTweet{rawTweet("1", "alice\nwith newline")}}
	input := `{"jsonrpc":"2.0","method":"initialize","params":{"username":"u","email":"e","password":"p"},"id":1}
{"jsonrpc":"2.0","method":"search","params":{"query":"q"},"id":2}
`
	var out bytes.Buffer
	loop := NewLoop(NewService(stub), strings.NewReader(input), &out)
	require.NoError(t, loop.Run(context.Background()))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		require.True(t, json.Valid([]byte(line)), "every line must be one complete json value: %s", line)
	}
}
