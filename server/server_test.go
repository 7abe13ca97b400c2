package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HershyOrg/dtrader/builtin"
	"github.com/HershyOrg/dtrader/eval"
	"github.com/HershyOrg/dtrader/scope"
	"github.com/gorilla/websocket"
)

func setupTestServer(t *testing.T, preload string) (*Server, *httptest.Server) {
	t.Helper()
	root := scope.NewRoot()
	ev := eval.New(root, builtin.Default(&bytes.Buffer{}))
	if preload != "" {
		if _, err := ev.EvalSource(preload); err != nil {
			t.Fatalf("preload: %v", err)
		}
	}
	s := New(ev, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, src string) Reply {
	t.Helper()
	if err := conn.WriteJSON(Request{Source: src}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply Reply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply
}

func TestSessionEvaluates(t *testing.T) {
	_, ts := setupTestServer(t, "")
	conn := dial(t, ts)

	reply := roundTrip(t, conn, `a = 1 + 2; b = a * 1.5; "x" + a;`)
	if reply.Error != "" {
		t.Fatalf("unexpected error %q", reply.Error)
	}
	want := []Result{
		{Statement: "a = 1 + 2;", Value: "3", Type: "Integer"},
		{Statement: "b = a * 1.5;", Value: "4.5", Type: "Real"},
		{Statement: `"x" + a;`, Value: "x3", Type: "Text"},
	}
	if len(reply.Results) != len(want) {
		t.Fatalf("expected %d results, got %+v", len(want), reply.Results)
	}
	for i := range want {
		if reply.Results[i] != want[i] {
			t.Errorf("result %d: expected %+v, got %+v", i, want[i], reply.Results[i])
		}
	}

	// the session keeps its bindings between messages
	reply = roundTrip(t, conn, "a + 1;")
	if reply.Error != "" || len(reply.Results) != 1 || reply.Results[0].Value != "4" {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestSessionReportsPartialResults(t *testing.T) {
	_, ts := setupTestServer(t, "")
	conn := dial(t, ts)

	reply := roundTrip(t, conn, "a = 1; b = 1 / 0; c = 3;")
	if len(reply.Results) != 1 || reply.Results[0].Value != "1" {
		t.Fatalf("expected the first statement only, got %+v", reply.Results)
	}
	if !strings.Contains(reply.Error, "divide by 0") {
		t.Errorf("expected divide by zero error, got %q", reply.Error)
	}
}

func TestSessionRejectsBadJSON(t *testing.T) {
	_, ts := setupTestServer(t, "")
	conn := dial(t, ts)
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply Reply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(reply.Error, "invalid request") {
		t.Errorf("expected invalid request error, got %q", reply.Error)
	}
	// the connection stays usable
	if reply := roundTrip(t, conn, "1;"); reply.Error != "" {
		t.Errorf("unexpected error %q", reply.Error)
	}
}

func TestSessionsShareRootOnly(t *testing.T) {
	s, ts := setupTestServer(t, "shared = 1;")
	first := dial(t, ts)
	second := dial(t, ts)

	roundTrip(t, first, "shared = 10; mine = 5;")

	reply := roundTrip(t, second, "shared;")
	if reply.Error != "" || reply.Results[0].Value != "10" {
		t.Fatalf("expected root update to be visible, got %+v", reply)
	}
	reply = roundTrip(t, second, "mine;")
	if !strings.Contains(reply.Error, "mine") {
		t.Errorf("expected uninitialized symbol error, got %+v", reply)
	}
	if _, ok := s.root.Lookup("mine"); ok {
		t.Errorf("session-local name leaked into root")
	}
}

func TestChartsAndSymbols(t *testing.T) {
	_, ts := setupTestServer(t, `price = 42; chart("btc", price, "close");`)

	resp, err := http.Get(ts.URL + "/charts")
	if err != nil {
		t.Fatalf("get charts: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var charts ChartsResponse
	if err := json.NewDecoder(resp.Body).Decode(&charts); err != nil {
		t.Fatalf("decode charts: %v", err)
	}
	if charts.Count != 1 || charts.Charts[0].Name != "btc" || charts.Charts[0].Args[0] != "42" {
		t.Errorf("unexpected charts %+v", charts)
	}

	resp2, err := http.Get(ts.URL + "/symbols")
	if err != nil {
		t.Fatalf("get symbols: %v", err)
	}
	defer resp2.Body.Close()
	var symbols SymbolsResponse
	if err := json.NewDecoder(resp2.Body).Decode(&symbols); err != nil {
		t.Fatalf("decode symbols: %v", err)
	}
	if symbols.Count != 1 || symbols.Symbols[0].Name != "price" || symbols.Symbols[0].Type != "Integer" {
		t.Errorf("unexpected symbols %+v", symbols)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := setupTestServer(t, "")
	resp, err := http.Post(ts.URL+"/symbols", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func waitStart(t *testing.T, errc <-chan error) {
	t.Helper()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestStopBeforeStart(t *testing.T) {
	s, _ := setupTestServer(t, "")
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	errc := make(chan error, 1)
	go func() { errc <- s.Start("127.0.0.1:0") }()
	waitStart(t, errc)
}

func TestStartThenStop(t *testing.T) {
	s, _ := setupTestServer(t, "")
	errc := make(chan error, 1)
	go func() { errc <- s.Start("127.0.0.1:0") }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		s.lifecycle.Lock()
		started := s.server != nil
		s.lifecycle.Unlock()
		if started {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("server never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	waitStart(t, errc)
}
