// Command handlers. Each handler validates its own arguments beyond the
// dispatch table's arity bounds, calls through to the KV facade
// (internal/store), and renders exactly one reply via reply.go.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/thebagchi/kvstored/arena"
	"github.com/thebagchi/kvstored/internal/store"
)

func cmdPing(s *Server, c *conn, args [][]byte) {
	if len(args) == 0 {
		writeStatus(c, "PONG")
		return
	}
	writeBulk(c, args[0])
}

// infoStatsScratch backs the INFO/STATS body builders: both are
// low-frequency, operator-facing commands, so a small per-call scratch
// arena built with arena.Buffer (arena/buffer.go) is a fitting home for it
// — the same bump-and-discard shape the store's hot path uses, just scoped
// to a single command instead of the store's lifetime.
func infoStatsScratch() (*arena.Arena, *arena.Buffer) {
	a := arena.New(1)
	return a, arena.NewBuffer(a)
}

func cmdInfo(s *Server, c *conn, args [][]byte) {
	stats := s.store.Stats()
	scratch, buf := infoStatsScratch()
	defer scratch.Delete()

	buf.AppendString(fmt.Sprintf("version:%s\r\n", Version))
	buf.AppendString(fmt.Sprintf("uptime_seconds:%d\r\n", int(s.uptime().Seconds())))
	buf.AppendString(fmt.Sprintf("connections:%d\r\n", s.activeConnections.Load()))
	buf.AppendString(fmt.Sprintf("total_requests:%d\r\n", s.requests.Load()))
	buf.AppendString(fmt.Sprintf("total_errors:%d\r\n", s.errorCount.Load()))
	buf.AppendString(fmt.Sprintf("keys:%d\r\n", stats.Keys))

	writeBulk(c, buf.Bytes())
}

func cmdStats(s *Server, c *conn, args [][]byte) {
	stats := s.store.Stats()
	scratch, buf := infoStatsScratch()
	defer scratch.Delete()

	buf.AppendString(fmt.Sprintf("keys:%d\r\n", stats.Keys))
	buf.AppendString(fmt.Sprintf("buckets:%d\r\n", stats.Buckets))
	buf.AppendString(fmt.Sprintf("load_factor:%.4f\r\n", stats.LoadFactor))
	buf.AppendString(fmt.Sprintf("max_load_factor:%.2f\r\n", stats.MaxLoadFactor))

	writeBulk(c, buf.Bytes())
}

// cmdSet implements SET key value[ extra...], joining tokens 2.. with a
// single space apiece. Consecutive interior spaces in the original line
// collapse to one; this is a documented limitation, not a bug.
func cmdSet(s *Server, c *conn, args [][]byte) {
	key := args[0]
	value := bytes.Join(args[1:], []byte{' '})
	if err := s.store.Put(key, store.StringValue(value)); err != nil {
		s.recordError()
		writeError(c, translatePutErr(err))
		return
	}
	writeStatus(c, "OK")
}

func cmdSetInt(s *Server, c *conn, args [][]byte) {
	n, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		s.recordError()
		writeError(c, "value is not a valid integer")
		return
	}
	if err := s.store.Put(args[0], store.Int64Value(n)); err != nil {
		s.recordError()
		writeError(c, translatePutErr(err))
		return
	}
	writeStatus(c, "OK")
}

func cmdSetFloat(s *Server, c *conn, args [][]byte) {
	f, err := strconv.ParseFloat(string(args[1]), 64)
	if err != nil {
		s.recordError()
		writeError(c, "value is not a valid float")
		return
	}
	if err := s.store.Put(args[0], store.DoubleValue(f)); err != nil {
		s.recordError()
		writeError(c, translatePutErr(err))
		return
	}
	writeStatus(c, "OK")
}

func cmdSetBool(s *Server, c *conn, args [][]byte) {
	b, err := strconv.ParseBool(string(args[1]))
	if err != nil {
		s.recordError()
		writeError(c, "value is not a valid boolean")
		return
	}
	if err := s.store.Put(args[0], store.BoolValue(b)); err != nil {
		s.recordError()
		writeError(c, translatePutErr(err))
		return
	}
	writeStatus(c, "OK")
}

func cmdSetNull(s *Server, c *conn, args [][]byte) {
	if err := s.store.Put(args[0], store.NullValue()); err != nil {
		s.recordError()
		writeError(c, translatePutErr(err))
		return
	}
	writeStatus(c, "OK")
}

// cmdGet renders the stored value by tag: STRING/BINARY are raw bulk bytes,
// INT64 is decimal, DOUBLE uses %g, BOOL is "true"/"false", and NULL
// renders as the bulk string "null".
func cmdGet(s *Server, c *conn, args [][]byte) {
	v, err := s.store.Get(args[0])
	if err != nil {
		writeNilBulk(c)
		return
	}
	switch v.Kind {
	case store.KindString, store.KindBinary:
		writeBulk(c, v.Bytes)
	case store.KindInt64:
		writeBulk(c, []byte(strconv.FormatInt(v.I64, 10)))
	case store.KindDouble:
		writeBulk(c, []byte(strconv.FormatFloat(v.F64, 'g', -1, 64)))
	case store.KindBool:
		if v.Bool {
			writeBulk(c, []byte("true"))
		} else {
			writeBulk(c, []byte("false"))
		}
	case store.KindNull:
		writeBulk(c, []byte("null"))
	default:
		writeNilBulk(c)
	}
}

func cmdType(s *Server, c *conn, args [][]byte) {
	k, err := s.store.TypeOf(args[0])
	if err != nil {
		s.recordError()
		writeError(c, "no such key")
		return
	}
	writeStatus(c, k.String())
}

func cmdDel(s *Server, c *conn, args [][]byte) {
	if s.store.Delete(args[0]) {
		writeInteger(c, 1)
	} else {
		writeInteger(c, 0)
	}
}

func cmdExists(s *Server, c *conn, args [][]byte) {
	if s.store.Exists(args[0]) {
		writeInteger(c, 1)
	} else {
		writeInteger(c, 0)
	}
}

func cmdKeys(s *Server, c *conn, args [][]byte) {
	keys := s.store.Keys()
	mark := c.writeLen
	if !writeArrayHeader(c, len(keys)) {
		return
	}
	for _, k := range keys {
		if !writeBulk(c, k) {
			c.writeLen = mark // drop the partial array
			return
		}
	}
}

func cmdClear(s *Server, c *conn, args [][]byte) {
	s.store.Clear()
	writeStatus(c, "OK")
}

func cmdSave(s *Server, c *conn, args [][]byte) {
	path := s.dbFile
	if len(args) == 1 {
		path = string(args[0])
	}
	if err := s.store.Save(path); err != nil {
		s.recordError()
		s.logger.Error("save failed", zap.Error(err))
		writeError(c, "save failed")
		return
	}
	writeStatus(c, "OK")
}

// cmdBackup implements BACKUP [name]. Unlike SAVE, a missing name is not an
// arity error: it defaults to a timestamped sibling of the configured
// db-file. The timestamp has one-second resolution, so two BACKUP calls in
// the same second write the same path and the later one overwrites it.
// The reply is the bulk string of the path actually written, so a caller
// that omitted name can learn what was generated.
func cmdBackup(s *Server, c *conn, args [][]byte) {
	path := s.dbFile
	if len(args) == 1 {
		path = string(args[0])
	} else {
		path = backupFileName(s.dbFile, time.Now())
	}
	if err := s.store.Save(path); err != nil {
		s.recordError()
		s.logger.Error("backup failed", zap.Error(err))
		writeError(c, "backup failed")
		return
	}
	writeBulk(c, []byte(path))
}

// backupFileName builds the default BACKUP target: <dbFile>.backup.<ts>,
// with ts in YYYYMMDD-HHMMSS.
func backupFileName(dbFile string, ts time.Time) string {
	return dbFile + ".backup." + ts.Format("20060102-150405")
}

// cmdLoad implements LOAD [path]; a missing file is a deliberate
// bootstrapping no-op, not an error.
func cmdLoad(s *Server, c *conn, args [][]byte) {
	path := s.dbFile
	if len(args) == 1 {
		path = string(args[0])
	}
	if err := s.store.Load(path); err != nil {
		s.recordError()
		s.logger.Error("load failed", zap.Error(err))
		writeError(c, "load failed")
		return
	}
	writeStatus(c, "OK")
}

func cmdQuit(s *Server, c *conn, args [][]byte) {
	writeStatus(c, "OK")
	c.state = StateClosing
}

func translatePutErr(err error) string {
	switch {
	case errors.Is(err, store.ErrEmptyKey):
		return "key must not be empty"
	case errors.Is(err, store.ErrKeyTooLarge):
		return "Key too large"
	case errors.Is(err, store.ErrValueTooLarge):
		return "Value too large"
	default:
		return err.Error()
	}
}
