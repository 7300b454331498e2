package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// BaseName prefixes every log file this package writes
const BaseName = "cloudcost-guard"

// backupStamp names rotated files; it sorts chronologically as text
const backupStamp = "20060102-150405.000"

// RollingConfig configures rolling log behavior. Zero values disable the
// matching limit.
type RollingConfig struct {
	LogDir     string
	MaxSize    int64 // bytes in the active file before it is rotated
	MaxAge     int   // days a rotated file is kept
	MaxBackups int   // rotated files kept, newest first
	Compress   bool  // gzip rotated files
}

// DefaultRollingConfig returns sensible defaults
func DefaultRollingConfig() RollingConfig {
	return RollingConfig{
		LogDir:     "logs",
		MaxSize:    10 * 1024 * 1024,
		MaxAge:     7,
		MaxBackups: 5,
		Compress:   true,
	}
}

// RollingWriter appends to <LogDir>/cloudcost-guard.log (or .jsonl) and
// moves it aside to cloudcost-guard-<stamp>.log when it grows past MaxSize
// or the day changes. Rotated files are optionally gzipped and pruned by
// age and count.
type RollingWriter struct {
	mu     sync.Mutex
	config RollingConfig
	ext    string
	now    func() time.Time

	file   *os.File
	size   int64
	opened string // day the active file belongs to
}

// NewRollingWriter creates a new rolling log writer
func NewRollingWriter(cfg RollingConfig, isJSON bool) (*RollingWriter, error) {
	return newRollingWriter(cfg, isJSON, time.Now)
}

func newRollingWriter(cfg RollingConfig, isJSON bool, now func() time.Time) (*RollingWriter, error) {
	rw := &RollingWriter{
		config: cfg,
		ext:    ".log",
		now:    now,
	}
	if isJSON {
		rw.ext = ".jsonl"
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	rw.prune()
	return rw, nil
}

// Write implements io.Writer
func (rw *RollingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, os.ErrClosed
	}
	if rw.shouldRotate(len(p)) {
		if err := rw.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// Close closes the active file
func (rw *RollingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}

func (rw *RollingWriter) activePath() string {
	return filepath.Join(rw.config.LogDir, BaseName+rw.ext)
}

// shouldRotate reports whether writing n more bytes needs a fresh file. An
// empty file is never rotated, so one oversized entry still gets written.
func (rw *RollingWriter) shouldRotate(n int) bool {
	if rw.size == 0 {
		return false
	}
	if rw.now().Format(time.DateOnly) != rw.opened {
		return true
	}
	return rw.config.MaxSize > 0 && rw.size+int64(n) > rw.config.MaxSize
}

func (rw *RollingWriter) rotate() error {
	if err := rw.file.Close(); err != nil {
		return err
	}
	rw.file = nil

	backup := rw.backupPath()
	if err := os.Rename(rw.activePath(), backup); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	if rw.config.Compress {
		// a failed compression leaves the plain backup in place
		compressFile(backup)
	}

	if err := rw.open(); err != nil {
		return err
	}
	rw.prune()
	return nil
}

// backupPath returns an unused name for the file being rotated out
func (rw *RollingWriter) backupPath() string {
	stamp := rw.now().Format(backupStamp)
	path := filepath.Join(rw.config.LogDir, fmt.Sprintf("%s-%s%s", BaseName, stamp, rw.ext))
	for i := 1; fileExists(path) || fileExists(path+".gz"); i++ {
		path = filepath.Join(rw.config.LogDir, fmt.Sprintf("%s-%s.%d%s", BaseName, stamp, i, rw.ext))
	}
	return path
}

// open opens the active file, picking up an existing one left by a
// previous run.
func (rw *RollingWriter) open() error {
	path := rw.activePath()
	rw.size = 0
	rw.opened = rw.now().Format(time.DateOnly)
	if info, err := os.Stat(path); err == nil {
		rw.size = info.Size()
		rw.opened = info.ModTime().Format(time.DateOnly)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	rw.file = f
	return nil
}

// backups lists rotated files, newest first
func (rw *RollingWriter) backups() []string {
	pattern := filepath.Join(rw.config.LogDir, BaseName+"-*"+rw.ext+"*")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files
}

// prune removes rotated files older than MaxAge days and beyond MaxBackups
func (rw *RollingWriter) prune() {
	cutoff := rw.now().AddDate(0, 0, -rw.config.MaxAge)
	kept := 0
	for _, f := range rw.backups() {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if rw.config.MaxAge > 0 && info.ModTime().Before(cutoff) {
			os.Remove(f)
			continue
		}
		if rw.config.MaxBackups > 0 && kept >= rw.config.MaxBackups {
			os.Remove(f)
			continue
		}
		kept++
	}
}

// compressFile gzips path into path.gz and removes the original
func compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	gzPath := path + ".gz"
	dst, err := os.Create(gzPath)
	if err != nil {
		return err
	}

	gzw := gzip.NewWriter(dst)
	gzw.Name = filepath.Base(path)
	gzw.ModTime = info.ModTime()

	_, err = io.Copy(gzw, src)
	if err == nil {
		err = gzw.Close()
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(gzPath)
		return err
	}
	// keep the rotation time so age-based pruning still works
	os.Chtimes(gzPath, info.ModTime(), info.ModTime())

	src.Close()
	return os.Remove(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetLogFiles returns the active and rotated log files, newest first
func GetLogFiles(logDir string) []LogFileInfo {
	var files []LogFileInfo

	matches, err := filepath.Glob(filepath.Join(logDir, BaseName+"*"))
	if err != nil {
		return files
	}

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, LogFileInfo{
			Name:     filepath.Base(path),
			Path:     path,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files
}

// LogFileInfo contains information about a log file
type LogFileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// FormatSize formats bytes to human-readable size
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// IsLambda returns true if running in AWS Lambda
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// LambdaWriter writes one CloudWatch line per entry; CloudWatch adds the
// timestamp.
type LambdaWriter struct {
	component string
	level     Level
	out       io.Writer
}

// NewLambdaWriter creates a writer for Lambda/CloudWatch
func NewLambdaWriter(component string, level Level) *LambdaWriter {
	return &LambdaWriter{component: component, level: level, out: os.Stdout}
}

// Write implements io.Writer
func (lw *LambdaWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}
	fmt.Fprintf(lw.out, "[%s] [%s] %s\n", lw.level.String(), lw.component, msg)
	return len(p), nil
}
