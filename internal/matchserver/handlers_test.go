package matchserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/SRI-AIC/valet-sub000/internal/manager"
)

func writeRuleFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.vr")
	require.NoError(t, os.WriteFile(path, []byte("period: {.}\n"), 0o644))
	return path
}

func TestCreateSessionReportsRules(t *testing.T) {
	ruleFile := writeRuleFile(t)
	s := NewServer(manager.LoadOptions{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	body, _ := json.Marshal(createSessionRequest{RuleFile: ruleFile})
	resp, err := http.Post(srv.URL+"/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created createSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	require.Contains(t, created.Rules, "period")
}

func TestDocumentStreamsMatchesOverWebSocket(t *testing.T) {
	ruleFile := writeRuleFile(t)
	s := NewServer(manager.LoadOptions{})
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	body, _ := json.Marshal(createSessionRequest{RuleFile: ruleFile})
	resp, err := http.Post(srv.URL+"/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	var created createSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + created.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	docJSON := []byte(`{
		"sequences": [{
			"id": "s1",
			"source": "a . b .",
			"tokens": [
				{"text": "a", "offset": 0, "length": 1},
				{"text": ".", "offset": 2, "length": 1},
				{"text": "b", "offset": 4, "length": 1},
				{"text": ".", "offset": 6, "length": 1}
			]
		}]
	}`)
	docResp, err := http.Post(srv.URL+"/sessions/"+created.ID+"/documents", "application/json", bytes.NewReader(docJSON))
	require.NoError(t, err)
	defer docResp.Body.Close()
	require.Equal(t, http.StatusAccepted, docResp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var seen int
	for seen < 2 {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev matchEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		require.Equal(t, "period", ev.Rule)
		require.Equal(t, ".", ev.Text)
		seen++
	}
}
