// Package session keeps the in-memory conversion batches of browser sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vcf-converter/backend/internal/converter"
	"github.com/vcf-converter/backend/internal/models"
	"go.uber.org/zap"
)

// DefaultMaxBatches limits concurrent batches to bound memory use.
const DefaultMaxBatches = 100

// BatchKeepAliveWindow protects recently used batches from age cleanup.
const BatchKeepAliveWindow = 5 * time.Minute

// DefaultCleanupInterval is used by Run when no interval is configured.
const DefaultCleanupInterval = 5 * time.Minute

var (
	ErrBatchNotFound    = errors.New("batch not found")
	ErrIndexOutOfRange  = errors.New("file index out of range")
	ErrNothingConverted = errors.New("no file has been converted in this batch")
	ErrUnknownProfile   = errors.New("unknown profile")
)

// ConvertOptions carries the optional form values of a conversion.
type ConvertOptions struct {
	// FileName overrides the name derived from the source file.
	FileName string
	// ContactName, when set, becomes the batch's contact name.
	ContactName string
	Profile     string
	SourceID    string
}

// ReleaseFunc is called with the id of a stored source file once no batch
// refers to it.
type ReleaseFunc func(sourceID string)

// Manager handles conversion batches.
type Manager struct {
	batches    map[string]*models.Batch
	mu         sync.RWMutex
	registry   *converter.Registry
	logger     *zap.Logger
	maxBatches int

	// defaultName replaces an empty contact name.
	defaultName string
	onRelease   ReleaseFunc
}

// NewManager creates a batch manager backed by registry. A nil registry uses
// the built-in profiles and a nil logger discards output.
func NewManager(registry *converter.Registry, logger *zap.Logger) *Manager {
	if registry == nil {
		registry = converter.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		batches:     make(map[string]*models.Batch),
		registry:    registry,
		logger:      logger.Named("session"),
		maxBatches:  DefaultMaxBatches,
		defaultName: models.DefaultContactName,
	}
}

// SetDefaultContactName changes the name given to batches created without
// one. An empty name restores the built-in default.
func (m *Manager) SetDefaultContactName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.DefaultContactName
	}
	m.mu.Lock()
	m.defaultName = name
	m.mu.Unlock()
}

// SetReleaseFunc registers the callback for source files that are no longer
// referenced by a batch.
func (m *Manager) SetReleaseFunc(fn ReleaseFunc) {
	m.mu.Lock()
	m.onRelease = fn
	m.mu.Unlock()
}

// release runs the release callback. It must be called without m.mu held.
func (m *Manager) release(ids []string) {
	if len(ids) == 0 {
		return
	}
	m.mu.RLock()
	fn := m.onRelease
	m.mu.RUnlock()
	if fn == nil {
		return
	}
	for _, id := range ids {
		fn(id)
	}
}

// detachUnusedSourcesLocked drops the sources that are neither selected nor
// referenced by a converted file and returns their ids.
func detachUnusedSourcesLocked(b *models.Batch) []string {
	used := map[string]bool{b.SourceID: true}
	for _, f := range b.Files {
		used[f.SourceID] = true
	}
	var kept, released []string
	for _, id := range b.Sources {
		if used[id] {
			kept = append(kept, id)
		} else {
			released = append(released, id)
		}
	}
	b.Sources = kept
	return released
}

// SetMaxBatches changes the capacity limit. Values below 1 are ignored.
func (m *Manager) SetMaxBatches(n int) {
	if n < 1 {
		return
	}
	m.mu.Lock()
	m.maxBatches = n
	m.mu.Unlock()
}

// Create starts a new batch.
func (m *Manager) Create(contactName string) *models.Batch {
	m.mu.Lock()
	name := strings.TrimSpace(contactName)
	if name == "" {
		name = m.defaultName
	}
	b := models.NewBatch(uuid.New().String(), name)
	released := m.evictIfNeededLocked()
	m.batches[b.ID] = b
	snap := b.Snapshot()
	m.mu.Unlock()

	m.release(released)

	m.logger.Debug("batch created", zap.String("batch", b.ID))
	return snap
}

// Get returns a snapshot of a batch without file contents.
func (m *Manager) Get(id string) (*models.Batch, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.batches[id]
	if !ok {
		return nil, false
	}
	return b.Snapshot(), true
}

// Touch marks the batch as recently used.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.batches[id]
	if !ok {
		return false
	}
	b.LastAccessed = time.Now()
	return true
}

// List returns snapshots of all batches, most recently used first.
func (m *Manager) List() []*models.Batch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Batch, 0, len(m.batches))
	for _, b := range m.batches {
		out = append(out, b.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAccessed.After(out[j].LastAccessed)
	})
	return out
}

// SetContactName sets the name used by later conversions. Existing files
// keep the name they were generated with.
func (m *Manager) SetContactName(id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.batches[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = m.defaultName
	}
	b.ContactName = name
	b.LastAccessed = time.Now()
	return nil
}

// Convert filters content, formats it and appends the result to the batch.
func (m *Manager) Convert(id, sourceName, content string, opts ConvertOptions) (models.ConvertedFile, error) {
	conv, err := m.registry.Get(opts.Profile)
	if err != nil {
		return models.ConvertedFile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, opts.Profile)
	}

	numbers := conv.FilterLines(content)

	fileName := converter.BaseName(opts.FileName)
	if fileName == "" {
		fileName = converter.VCFName(sourceName)
	}

	m.mu.Lock()
	b, ok := m.batches[id]
	if !ok {
		m.mu.Unlock()
		return models.ConvertedFile{}, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	if name := strings.TrimSpace(opts.ContactName); name != "" {
		b.ContactName = name
	}

	file := conv.ConvertLines(numbers, fileName, b.ContactName)
	file.SourceID = opts.SourceID

	b.FilteredContent = strings.Join(numbers, "\n")
	b.SelectedFileName = sourceName
	b.SourceID = opts.SourceID
	if opts.SourceID != "" {
		b.Sources = append(b.Sources, opts.SourceID)
	}
	b.Profile = conv.Name()
	b.Files = append(b.Files, file)
	b.LastAccessed = time.Now()
	released := detachUnusedSourcesLocked(b)
	m.mu.Unlock()

	m.release(released)

	m.logger.Info("converted file",
		zap.String("batch", id),
		zap.String("source", sourceName),
		zap.String("file", fileName),
		zap.String("profile", conv.Name()),
		zap.Int("cards", file.Count),
	)
	return file, nil
}

// Reconvert converts the last filtered content again with the batch's
// current contact name and appends the result. An empty fileName reuses the
// name derived from the last source file.
func (m *Manager) Reconvert(id, fileName string) (models.ConvertedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.batches[id]
	if !ok {
		return models.ConvertedFile{}, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	if b.SelectedFileName == "" {
		return models.ConvertedFile{}, ErrNothingConverted
	}
	conv, err := m.registry.Get(b.Profile)
	if err != nil {
		return models.ConvertedFile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, b.Profile)
	}

	fileName = converter.BaseName(fileName)
	if fileName == "" {
		fileName = converter.VCFName(b.SelectedFileName)
	}

	file := conv.ConvertLines(strings.Split(b.FilteredContent, "\n"), fileName, b.ContactName)
	file.SourceID = b.SourceID
	b.Files = append(b.Files, file)
	b.LastAccessed = time.Now()

	m.logger.Info("reconverted file",
		zap.String("batch", id),
		zap.String("file", fileName),
		zap.Int("cards", file.Count),
	)
	return file, nil
}

// Preview returns the filtered content of the last converted source.
func (m *Manager) Preview(id string) (string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.batches[id]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	if b.SelectedFileName == "" {
		return "", "", ErrNothingConverted
	}
	return b.SelectedFileName, b.FilteredContent, nil
}

// Files returns the batch's converted files including their content.
func (m *Manager) Files(id string) ([]models.ConvertedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	return append([]models.ConvertedFile(nil), b.Files...), nil
}

// File returns one converted file by position.
func (m *Manager) File(id string, index int) (models.ConvertedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.batches[id]
	if !ok {
		return models.ConvertedFile{}, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	if index < 0 || index >= len(b.Files) {
		return models.ConvertedFile{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return b.Files[index], nil
}

// Delete removes one converted file by position.
func (m *Manager) Delete(id string, index int) error {
	m.mu.Lock()
	b, ok := m.batches[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	if index < 0 || index >= len(b.Files) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	b.Files = append(b.Files[:index:index], b.Files[index+1:]...)
	b.LastAccessed = time.Now()
	released := detachUnusedSourcesLocked(b)
	m.mu.Unlock()

	m.release(released)
	return nil
}

// Drain returns every converted file and empties the list.
func (m *Manager) Drain(id string) ([]models.ConvertedFile, error) {
	m.mu.Lock()
	b, ok := m.batches[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	files := b.Files
	b.Files = make([]models.ConvertedFile, 0)
	b.LastAccessed = time.Now()
	released := detachUnusedSourcesLocked(b)
	m.mu.Unlock()

	m.release(released)
	return files, nil
}

// Remove deletes a batch and releases its sources.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	b, ok := m.batches[id]
	if ok {
		delete(m.batches, id)
	}
	m.mu.Unlock()

	if ok {
		m.release(b.Sources)
	}
	return ok
}

// Count returns the number of live batches.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.batches)
}

// evictIfNeededLocked drops least recently used batches until one more fits
// and returns the sources they held.
func (m *Manager) evictIfNeededLocked() []string {
	var released []string
	for len(m.batches) >= m.maxBatches {
		var oldestID string
		var oldest time.Time
		for id, b := range m.batches {
			if oldestID == "" || b.LastAccessed.Before(oldest) {
				oldestID, oldest = id, b.LastAccessed
			}
		}
		released = append(released, m.batches[oldestID].Sources...)
		delete(m.batches, oldestID)
		m.logger.Info("evicted batch at capacity", zap.String("batch", oldestID))
	}
	return released
}

// CleanupOldBatches removes batches not used within maxAge. Batches touched
// inside BatchKeepAliveWindow always survive.
func (m *Manager) CleanupOldBatches(maxAge time.Duration) int {
	m.mu.Lock()
	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-BatchKeepAliveWindow)

	removed := 0
	var released []string
	for id, b := range m.batches {
		if b.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if b.LastAccessed.Before(cutoff) {
			delete(m.batches, id)
			released = append(released, b.Sources...)
			removed++
			m.logger.Info("cleaned up aged batch",
				zap.String("batch", id),
				zap.Duration("idle", now.Sub(b.LastAccessed).Round(time.Second)),
			)
		}
	}
	m.mu.Unlock()

	m.release(released)
	return removed
}

// Run cleans up aged batches every interval until ctx is done. A
// non-positive interval uses DefaultCleanupInterval.
func (m *Manager) Run(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanupSafely(maxAge)
		}
	}
}

func (m *Manager) cleanupSafely(maxAge time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("batch cleanup panicked", zap.Any("panic", r))
		}
	}()
	m.CleanupOldBatches(maxAge)
}
