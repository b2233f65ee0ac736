package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Logger provides synchronized leveled logging tagged with a run session id.
type Logger struct {
	mu      sync.Mutex
	l       *log.Logger
	session string
}

// New creates a logger writing to stderr with a fresh session id.
func New() *Logger {
	return NewWithWriter(os.Stderr, uuid.NewString())
}

// NewWithWriter creates a logger for an explicit writer and session id.
func NewWithWriter(w io.Writer, session string) *Logger {
	if len(session) > 8 {
		session = session[:8]
	}
	return &Logger{
		l:       log.New(w, "", log.Ldate|log.Ltime),
		session: session,
	}
}

// Infof writes an informational message.
func (lg *Logger) Infof(format string, args ...any) {
	lg.logf("INFO ", format, args...)
}

// Warnf writes a warning message.
func (lg *Logger) Warnf(format string, args ...any) {
	lg.logf("WARN ", format, args...)
}

// Errorf writes an error message.
func (lg *Logger) Errorf(format string, args ...any) {
	lg.logf("ERROR", format, args...)
}

func (lg *Logger) logf(level, format string, args ...any) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	lg.l.Printf("%s [%s] %s", level, lg.session, fmt.Sprintf(format, args...))
}
