// Package watch monitors workbook files and directories and runs a handler
// once a changed workbook has settled.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/klytics/xlnt/internal/config"
)

// WorkbookExtensions are matched when a rule lists no extensions.
var WorkbookExtensions = []string{".xlsx", ".xlsm"}

// DefaultDebounce is the settle time in milliseconds.
const DefaultDebounce = 500

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Rule selects workbooks by extension and glob pattern and names the
// measure the handler computes for them.
type Rule struct {
	ID         string   `json:"id"`
	Pattern    string   `json:"pattern,omitempty"`    // glob on the base name, e.g. "model_*.xlsx"
	Extensions []string `json:"extensions,omitempty"` // default: WorkbookExtensions
	Measure    string   `json:"measure,omitempty"`
	Enabled    bool     `json:"enabled"`
}

// Config holds the complete watcher configuration.
type Config struct {
	Paths     []string `json:"paths"` // workbook files or directories
	Rules     []Rule   `json:"rules"`
	Recursive bool     `json:"recursive"`
	Debounce  int      `json:"debounceMs"`
}

// Event is one processed file change.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	RuleID    string    `json:"ruleId,omitempty"`
	Measure   string    `json:"measure,omitempty"`
	Status    string    `json:"status"` // "processed", "error", "skipped"
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Handler recomputes whatever depends on path and returns a printable result.
type Handler func(path string, rule Rule) (string, error)

// Status is a snapshot of a watcher.
type Status struct {
	Running    bool     `json:"running"`
	Paths      []string `json:"paths"`
	Rules      int      `json:"rules"`
	EventCount int      `json:"eventCount"`
}

// Watcher runs Handler for workbook changes under Config.Paths.
type Watcher struct {
	Config  Config
	Handler Handler

	logger   zerolog.Logger
	mu       sync.Mutex
	events   []Event
	fsw      *fsnotify.Watcher
	debounce map[string]*time.Timer
	dirs     map[string]bool
	files    map[string]bool
	busy     map[string]*sync.Mutex
	running  bool
}

// New creates a watcher. It does not touch the file system until Start.
func New(cfg Config, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{
		Config:   cfg,
		logger:   logger.With().Str("component", "watch").Logger(),
		fsw:      fsw,
		debounce: make(map[string]*time.Timer),
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
		busy:     make(map[string]*sync.Mutex),
	}, nil
}

// Start watches the configured paths and blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, p := range w.Config.Paths {
		if err := w.add(p); err != nil {
			w.fsw.Close()
			return err
		}
	}

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	w.logger.Info().Int("paths", len(w.Config.Paths)).Int("rules", len(w.Config.Rules)).Msg("watching")

	defer func() {
		w.mu.Lock()
		w.running = false
		for path, t := range w.debounce {
			t.Stop()
			delete(w.debounce, path)
		}
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("stopping watcher")
			return w.fsw.Close()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watch error")
		}
	}
}

// add registers a file or directory. A file is watched through its parent
// directory so that editors replacing the file on save are still seen.
func (w *Watcher) add(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return fmt.Errorf("could not resolve %s: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", p, err)
	}

	if !info.IsDir() {
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("could not watch %s: %w", dir, err)
		}
		return nil
	}

	if !w.Config.Recursive {
		w.dirs[abs] = true
		if err := w.fsw.Add(abs); err != nil {
			return fmt.Errorf("could not watch %s: %w", abs, err)
		}
		return nil
	}
	return filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") && path != abs {
			return filepath.SkipDir
		}
		w.dirs[path] = true
		return w.fsw.Add(path)
	})
}

// wanted reports whether path is a watched file or lives in a watched directory.
func (w *Watcher) wanted(path string) bool {
	return w.files[path] || w.dirs[filepath.Dir(path)]
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Saving usually shows up as a write, or as a create when the editor
	// renames a temp file over the original.
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	path := event.Name
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return
	}
	if !w.wanted(path) {
		return
	}

	op := event.Op.String()
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		w.mu.Unlock()
		w.processFile(path, op)
	})
}

// lockPath serializes handler runs for one path, so a change arriving while
// the previous one is processed waits for it.
func (w *Watcher) lockPath(path string) (unlock func()) {
	w.mu.Lock()
	l, ok := w.busy[path]
	if !ok {
		l = &sync.Mutex{}
		w.busy[path] = l
	}
	w.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (w *Watcher) processFile(path, operation string) {
	defer w.lockPath(path)()

	for _, rule := range w.Config.Rules {
		if !rule.Enabled || !matchesRule(path, rule) {
			continue
		}

		evt := Event{
			Time:      time.Now(),
			Path:      path,
			Operation: operation,
			RuleID:    rule.ID,
			Measure:   rule.Measure,
			Status:    "processed",
		}
		if w.Handler != nil {
			result, err := w.Handler(path, rule)
			if err != nil {
				evt.Status = "error"
				evt.Error = err.Error()
				w.logger.Error().Err(err).Str("path", path).Str("rule", rule.ID).Msg("could not process workbook")
			} else {
				evt.Result = result
				w.logger.Debug().Str("path", path).Str("rule", rule.ID).Str("result", result).Msg("processed workbook")
			}
		}
		w.record(evt)
		return
	}

	w.record(Event{Time: time.Now(), Path: path, Operation: operation, Status: "skipped"})
}

func (w *Watcher) record(evt Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, evt)
	if len(w.events) > maxEvents {
		w.events = w.events[len(w.events)-maxEvents:]
	}
}

func matchesRule(path string, rule Rule) bool {
	ext := strings.ToLower(filepath.Ext(path))

	exts := rule.Extensions
	if len(exts) == 0 {
		exts = WorkbookExtensions
	}
	matched := false
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.ToLower(e) == ext {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	if rule.Pattern != "" {
		ok, _ := filepath.Match(rule.Pattern, filepath.Base(path))
		return ok
	}
	return true
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Running:    w.running,
		Paths:      w.Config.Paths,
		Rules:      len(w.Config.Rules),
		EventCount: len(w.events),
	}
}

// GetEvents returns the recorded events, oldest first.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

const (
	pidFile    = "watch.pid"
	configFile = "watch.json"
)

// WritePIDFile writes the current process ID to the PID file in dir.
func WritePIDFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, pidFile), []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// ReadPIDFile reads the PID from the PID file in dir.
func ReadPIDFile(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file.
func RemovePIDFile(dir string) error {
	return os.Remove(filepath.Join(dir, pidFile))
}

// SaveConfig writes the watcher config to dir for the status command.
func SaveConfig(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, configFile), data, 0644)
}

// LoadConfig reads the watcher config saved by SaveConfig.
func LoadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid watch config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigDir is where the PID and config files live.
func DefaultConfigDir() string {
	return config.Dir()
}
