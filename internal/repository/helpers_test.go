package repository

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, v...))
}
func (l *recordingLogger) Warn(format string, v ...interface{})  {}
func (l *recordingLogger) Info(format string, v ...interface{})  {}
func (l *recordingLogger) Debug(format string, v ...interface{}) {}

func (l *recordingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

// readOnlyDirFs refuses to create files below any of the given directories,
// the way a directory without write permission does.
type readOnlyDirFs struct {
	afero.Fs
	denied []string
}

func (f *readOnlyDirFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0 {
		for _, dir := range f.denied {
			if strings.HasPrefix(name, dir+"/") {
				return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
			}
		}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *readOnlyDirFs) Create(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}
