package server

import "bytes"

// handlerFunc executes one dispatched command, appending its reply to c's
// write buffer. args excludes the command name itself.
type handlerFunc func(s *Server, c *conn, args [][]byte)

// command is one row of the static dispatch table: a name, its handler, and
// inclusive argument-count bounds (excluding the command name). maxArgs ==
// -1 means unbounded.
type command struct {
	name    string
	handler handlerFunc
	minArgs int
	maxArgs int
}

var commandTable = []command{
	{"PING", cmdPing, 0, 1},
	{"INFO", cmdInfo, 0, 0},
	{"STATS", cmdStats, 0, 0},
	{"SET", cmdSet, 2, -1},
	{"SETINT", cmdSetInt, 2, 2},
	{"SETFLOAT", cmdSetFloat, 2, 2},
	{"SETBOOL", cmdSetBool, 2, 2},
	{"SETNULL", cmdSetNull, 1, 1},
	{"GET", cmdGet, 1, 1},
	{"TYPE", cmdType, 1, 1},
	{"DEL", cmdDel, 1, 1},
	{"EXISTS", cmdExists, 1, 1},
	{"KEYS", cmdKeys, 0, 0},
	{"CLEAR", cmdClear, 0, 0},
	{"FLUSHALL", cmdClear, 0, 0},
	{"SAVE", cmdSave, 0, 1},
	{"BACKUP", cmdBackup, 0, 1},
	{"LOAD", cmdLoad, 0, 1},
	{"QUIT", cmdQuit, 0, 0},
}

// dispatchIndex maps an upper-cased command name to its table row, built
// once at package init so lookup is a plain map read and command names
// match case-insensitively.
var dispatchIndex = func() map[string]*command {
	idx := make(map[string]*command, len(commandTable))
	for i := range commandTable {
		idx[commandTable[i].name] = &commandTable[i]
	}
	return idx
}()

// upperASCII returns an upper-cased copy of b, built in a small stack buffer
// for names up to 16 bytes; b itself is not modified.
func upperASCII(b []byte) string {
	var buf [16]byte
	if len(b) > len(buf) {
		return string(bytes.ToUpper(b))
	}
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		buf[i] = c
	}
	return string(buf[:len(b)])
}

// dispatch looks up and invokes the handler for a tokenized line. Arity and
// unknown-name failures produce a -ERR reply without invoking any handler.
// Every dispatched line, recognized or not, counts toward total_requests;
// unknown-name and arity failures also count toward total_errors.
func dispatch(s *Server, c *conn, tokens [][]byte) {
	if len(tokens) == 0 {
		return
	}
	name := upperASCII(tokens[0])
	args := tokens[1:]

	s.requests.Add(1)
	if s.metrics != nil {
		s.metrics.Requests.Inc()
	}

	cmd, ok := dispatchIndex[name]
	if !ok {
		s.recordError()
		writeError(c, ErrUnknownCommand.Error()+": "+name)
		return
	}
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		s.recordError()
		writeError(c, ErrWrongArity.Error()+" for '"+name+"'")
		return
	}
	cmd.handler(s, c, args)
}
