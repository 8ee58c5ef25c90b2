package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/models"
)

const (
	pgBatchSize     = 50
	pgFlushInterval = 5 * time.Second
)

// PGHandler is an slog.Handler that batches ERROR+ records into system_logs.
type PGHandler struct {
	db     *gorm.DB
	attrs  []slog.Attr
	shared *pgBuffer
}

type pgBuffer struct {
	mu      sync.Mutex
	entries []models.SystemLog
	ticker  *time.Ticker
	done    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once
}

func NewPGHandler(db *gorm.DB) *PGHandler {
	h := &PGHandler{
		db: db,
		shared: &pgBuffer{
			entries: make([]models.SystemLog, 0, pgBatchSize),
			ticker:  time.NewTicker(pgFlushInterval),
			done:    make(chan struct{}),
		},
	}
	h.shared.stopped.Add(1)
	go h.flushLoop()
	return h
}

func (h *PGHandler) flushLoop() {
	defer h.shared.stopped.Done()
	for {
		select {
		case <-h.shared.ticker.C:
			h.flush()
		case <-h.shared.done:
			h.flush()
			return
		}
	}
}

func (h *PGHandler) flush() {
	b := h.shared
	b.mu.Lock()
	if len(b.entries) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.entries
	b.entries = make([]models.SystemLog, 0, pgBatchSize)
	b.mu.Unlock()

	if err := h.db.CreateInBatches(batch, pgBatchSize).Error; err != nil {
		// Not through slog: that would re-enter this handler.
		fmt.Fprintf(os.Stderr, "failed to flush %d system logs: %v\n", len(batch), err)
	}
}

// Stop flushes what is buffered and ends the background loop.
func (h *PGHandler) Stop() {
	h.shared.once.Do(func() {
		h.shared.ticker.Stop()
		close(h.shared.done)
	})
	h.shared.stopped.Wait()
}

func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := Entry(record, h.attrs)

	b := h.shared
	b.mu.Lock()
	b.entries = append(b.entries, entry)
	needFlush := len(b.entries) >= pgBatchSize
	b.mu.Unlock()

	if needFlush {
		go h.flush()
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PGHandler{db: h.db, attrs: merged, shared: h.shared}
}

func (h *PGHandler) WithGroup(string) slog.Handler {
	return h
}

// Entry converts a record into a system_logs row. Known attributes become
// columns; the rest go to extra.
func Entry(record slog.Record, preset []slog.Attr) models.SystemLog {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]any)
	apply := func(a slog.Attr) bool {
		v := a.Value.Resolve()
		switch a.Key {
		case "request_id":
			entry.RequestID = v.String()
		case "user_id":
			if id, ok := int64Value(v); ok {
				entry.UserID = &id
			}
		case "method":
			entry.Method = v.String()
		case "path":
			entry.Path = v.String()
		case "code":
			entry.Code = fmt.Sprint(v.Any())
		case "error":
			entry.Error = v.String()
		default:
			extra[a.Key] = v.Any()
		}
		return true
	}
	for _, a := range preset {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}
	return entry
}

func int64Value(v slog.Value) (int64, bool) {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		return int64(v.Uint64()), true
	case slog.KindString:
		id, err := strconv.ParseInt(v.String(), 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
