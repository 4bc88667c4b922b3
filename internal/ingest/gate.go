package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"docfactory/internal/config"
	"docfactory/internal/logging"
	"docfactory/internal/services"
)

// Item is one document admitted for processing.
type Item struct {
	Path       string
	DetectedAt time.Time
}

// Gate watches the input directory and admits files for processing. Files
// already present at startup are admitted before watch events. Each path is
// admitted at most once until Release is called for it, so a processing
// failure does not cause the same file to be picked up twice concurrently.
type Gate struct {
	inputDir    string
	allowedExts map[string]struct{}
	maxBytes    int64
	settleDelay time.Duration
	logger      *slog.Logger

	items chan Item

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGate builds a Gate from configuration.
func NewGate(cfg *config.Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNop()
	}
	allowed := make(map[string]struct{}, len(cfg.Processing.AllowedExtensions))
	for _, ext := range cfg.Processing.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Gate{
		inputDir:    cfg.Paths.InputDir,
		allowedExts: allowed,
		maxBytes:    int64(cfg.Processing.MaxFileSizeMB) * 1024 * 1024,
		settleDelay: time.Duration(cfg.Processing.SettleDelayMS) * time.Millisecond,
		logger:      logging.NewComponentLogger(logger, "ingest"),
		items:       make(chan Item, cfg.Processing.QueueCapacity),
		inflight:    make(map[string]struct{}),
	}
}

// Items returns the channel of admitted documents. The channel closes when
// Run returns.
func (g *Gate) Items() <-chan Item {
	return g.items
}

// Release marks a path as no longer in flight so a future drop of the same
// path is admitted again. Call it when a document finishes processing.
func (g *Gate) Release(path string) {
	g.mu.Lock()
	delete(g.inflight, path)
	g.mu.Unlock()
}

// Run scans the backlog, then watches the input directory until ctx is
// cancelled. Blocks for the lifetime of the watcher.
func (g *Gate) Run(ctx context.Context) error {
	defer close(g.items)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "detected", "watch", "create filesystem watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(g.inputDir); err != nil {
		return services.Wrap(services.ErrConfiguration, "detected", "watch", fmt.Sprintf("watch input directory %s", g.inputDir), err)
	}

	if err := g.scanBacklog(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			g.maybeAdmit(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.logger.Warn("watcher error",
				logging.String(logging.FieldEventType, "ingest_watch_error"),
				logging.Error(err))
		}
	}
}

// scanBacklog admits files already present in the input directory, oldest
// first, so work left over from a previous run is handled before new drops.
func (g *Gate) scanBacklog(ctx context.Context) error {
	entries, err := os.ReadDir(g.inputDir)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "detected", "scan_backlog", fmt.Sprintf("read input directory %s", g.inputDir), err)
	}

	type backlogFile struct {
		path    string
		modTime time.Time
	}
	var backlog []backlogFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backlog = append(backlog, backlogFile{
			path:    filepath.Join(g.inputDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(backlog, func(i, j int) bool { return backlog[i].modTime.Before(backlog[j].modTime) })

	for _, file := range backlog {
		g.maybeAdmit(ctx, file.path)
	}
	return nil
}

// maybeAdmit filters and, when the file qualifies, waits for it to settle
// and enqueues it. Claims the path in flight before the settle wait so a
// Create followed by Write events admits the file once.
func (g *Gate) maybeAdmit(ctx context.Context, path string) {
	if !g.allowedExtension(path) {
		return
	}

	g.mu.Lock()
	if _, busy := g.inflight[path]; busy {
		g.mu.Unlock()
		return
	}
	g.inflight[path] = struct{}{}
	g.mu.Unlock()

	if !g.settle(ctx, path) {
		g.Release(path)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		g.logger.Warn("skipping unreadable file",
			logging.String(logging.FieldEventType, "ingest_skip"),
			logging.String(logging.FieldSourceFile, filepath.Base(path)),
			logging.Error(err))
		g.Release(path)
		return
	}
	if g.maxBytes > 0 && info.Size() > g.maxBytes {
		g.logger.Warn("skipping oversize file",
			logging.String(logging.FieldEventType, "ingest_skip"),
			logging.String(logging.FieldSourceFile, filepath.Base(path)),
			logging.Int64("size_bytes", info.Size()),
			logging.Int64("max_bytes", g.maxBytes))
		g.Release(path)
		return
	}

	item := Item{Path: path, DetectedAt: time.Now().UTC()}
	select {
	case g.items <- item:
		g.logger.Info("admitted document",
			logging.String(logging.FieldEventType, "ingest_admitted"),
			logging.String(logging.FieldSourceFile, filepath.Base(path)))
	case <-ctx.Done():
		g.Release(path)
	}
}

// settle waits for the file's size to stop changing so partially written
// drops are not picked up mid-copy. Returns false when the file disappears
// or the context ends first.
func (g *Gate) settle(ctx context.Context, path string) bool {
	lastSize := int64(-1)
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(g.settleDelay):
		}

		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()
	}
}

func (g *Gate) allowedExtension(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	_, ok := g.allowedExts[ext]
	return ok
}
