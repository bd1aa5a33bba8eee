package server

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/thebagchi/kvstored/internal/store"
)

func newTestServer() *Server {
	return &Server{
		store:  store.New(16, nil),
		logger: zap.NewNop(),
		dbFile: "unused.db",
	}
}

func runLine(s *Server, c *conn, line string) string {
	tokens := tokenize([]byte(line))
	dispatch(s, c, tokens)
	reply := string(c.writeBuf[c.writePos:c.writeLen])
	c.resetWriteBuf()
	return reply
}

func TestDispatch_PingWithAndWithoutMessage(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	if got := runLine(s, c, "PING"); got != "+PONG\r\n" {
		t.Errorf("PING: got %q", got)
	}
	if got := runLine(s, c, "PING hello"); got != "$5\r\nhello\r\n" {
		t.Errorf("PING hello: got %q", got)
	}
}

func TestDispatch_SetGetDelExists(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	if got := runLine(s, c, "SET name Alice"); got != "+OK\r\n" {
		t.Fatalf("SET: got %q", got)
	}
	if got := runLine(s, c, "GET name"); got != "$5\r\nAlice\r\n" {
		t.Errorf("GET: got %q", got)
	}
	if got := runLine(s, c, "EXISTS name"); got != ":1\r\n" {
		t.Errorf("EXISTS: got %q", got)
	}
	if got := runLine(s, c, "DEL name"); got != ":1\r\n" {
		t.Errorf("DEL: got %q", got)
	}
	if got := runLine(s, c, "GET name"); got != "$-1\r\n" {
		t.Errorf("GET after DEL: got %q", got)
	}
}

func TestDispatch_SetJoinsMultiWordValue(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	runLine(s, c, "SET greeting Hello there world")
	got := runLine(s, c, "GET greeting")
	if got != "$17\r\nHello there world\r\n" {
		t.Errorf("expected 17-byte joined value, got %q", got)
	}
}

func TestDispatch_SetIntThenGetRendersDecimal(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	runLine(s, c, "SETINT n -42")
	got := runLine(s, c, "GET n")
	if got != "$3\r\n-42\r\n" {
		t.Errorf("expected -42 bulk, got %q", got)
	}
}

func TestDispatch_UnknownCommand(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	got := runLine(s, c, "BOGUS a b")
	if !strings.HasPrefix(got, "-ERR") {
		t.Errorf("expected -ERR reply, got %q", got)
	}
	if s.errorCount.Load() != 1 {
		t.Errorf("expected errorCount 1, got %d", s.errorCount.Load())
	}
}

func TestDispatch_WrongArity(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	got := runLine(s, c, "GET")
	if !strings.HasPrefix(got, "-ERR") {
		t.Errorf("expected -ERR reply for missing GET argument, got %q", got)
	}
}

func TestDispatch_KeysReturnsArray(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	runLine(s, c, "SET a 1")
	runLine(s, c, "SET b 2")
	got := runLine(s, c, "KEYS")
	if !strings.HasPrefix(got, "*2\r\n") {
		t.Errorf("expected array of 2, got %q", got)
	}
}

func TestDispatch_ClearEmptiesStore(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	runLine(s, c, "SET a 1")
	runLine(s, c, "CLEAR")
	got := runLine(s, c, "GET a")
	if got != "$-1\r\n" {
		t.Errorf("expected nil bulk after CLEAR, got %q", got)
	}
}

func TestDispatch_CaseInsensitiveCommandName(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	if got := runLine(s, c, "ping"); got != "+PONG\r\n" {
		t.Errorf("expected lowercase ping to dispatch, got %q", got)
	}
}

func TestDispatch_QuitMarksConnectionClosing(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	runLine(s, c, "QUIT")
	if c.state != StateClosing {
		t.Errorf("expected StateClosing after QUIT, got %v", c.state)
	}
}

func TestDispatch_BackupWithoutNameGeneratesTimestampedPath(t *testing.T) {
	s := newTestServer()
	s.dbFile = t.TempDir() + "/kvstore.db"
	c := newConn(-1, nil)

	runLine(s, c, "SET a 1")
	got := runLine(s, c, "BACKUP")
	if !strings.HasPrefix(got, "$") {
		t.Fatalf("expected a bulk reply naming the backup path, got %q", got)
	}
	if !strings.Contains(got, s.dbFile+".backup.") {
		t.Errorf("expected generated path to derive from db-file, got %q", got)
	}
}

func TestDispatch_BackupWithExplicitName(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)
	target := t.TempDir() + "/custom.db"

	got := runLine(s, c, "BACKUP "+target)
	want := fmt.Sprintf("$%d\r\n%s\r\n", len(target), target)
	if got != want {
		t.Errorf("expected bulk reply of the explicit path, got %q want %q", got, want)
	}
}

func TestDispatch_ValueTooLargeRejected(t *testing.T) {
	s := newTestServer()
	c := newConn(-1, nil)

	big := strings.Repeat("x", store.MaxSpanLen+1)
	got := runLine(s, c, "SET k "+big)
	if !strings.HasPrefix(got, "-ERR") {
		t.Errorf("expected -ERR for oversize value, got first 20 bytes: %q", got[:min(20, len(got))])
	}
}
