package deckwatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/betbot/metricdeck/pkg/config"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "deckwatch")

// DefaultDebounce 编辑器保存时往往连续产生多个事件，合并成一次重新加载
const DefaultDebounce = 300 * time.Millisecond

// Watcher 监听指标文件，变化后重新加载并回调。
// 监听的是所在目录：很多编辑器保存时是"写临时文件再 rename"，直接监听文件会丢事件。
type Watcher struct {
	path     string
	debounce time.Duration
	clock    clock.Clock
	load     func(path string) (*config.Config, error)
	onReload func(*config.Config)

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *clock.Timer
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option Watcher 构造选项
type Option func(*Watcher)

// WithDebounce 设置防抖时间（<=0 表示每个事件立即重新加载）
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithClock 注入时钟
func WithClock(clk clock.Clock) Option {
	return func(w *Watcher) { w.clock = clk }
}

// WithLoader 替换加载函数（默认 config.LoadFromFile）
func WithLoader(load func(path string) (*config.Config, error)) Option {
	return func(w *Watcher) { w.load = load }
}

// New 创建 Watcher；onReload 只在加载成功时调用，加载失败时保留当前指标
func New(path string, onReload func(*config.Config), opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("deckwatch: deck path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve deck path %s", path)
	}
	w := &Watcher{
		path:     filepath.Clean(abs),
		debounce: DefaultDebounce,
		clock:    clock.New(),
		load:     config.LoadFromFile,
		onReload: onReload,
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Path 被监听的文件（绝对路径）
func (w *Watcher) Path() string { return w.path }

// Start 开始监听；ctx 结束时自动停止
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("deckwatch: already running")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return errors.Wrapf(err, "watch directory %s", dir)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.loop(loopCtx, fsw, w.done)
	log.Infof("watching deck file: %s", w.path)
	return nil
}

// Stop 停止监听并等待事件循环退出（可重复调用）
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	fsw, done := w.fsw, w.done
	w.mu.Unlock()

	fsw.Close()
	<-done
	log.Info("deck watcher stopped")
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			switch {
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
				log.Debugf("deck file changed: %s", ev.Op)
				w.schedule()
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				// 被移走：等新文件的 Create 事件
				log.Debugf("deck file moved away: %s", ev.Op)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Warnf("file watcher error: %v", err)
		}
	}
}

// schedule 重置防抖定时器
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.debounce <= 0 {
		go w.reload()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = w.clock.AfterFunc(w.debounce, w.reload)
}

// reload 重新加载；失败只记日志，界面继续显示旧指标
func (w *Watcher) reload() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	cfg, err := w.load(w.path)
	if err != nil {
		log.Warnf("reload deck failed, keeping current metrics: %v", err)
		return
	}
	log.Infof("deck reloaded: %d metrics", len(cfg.Metrics))
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
