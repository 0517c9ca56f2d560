package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"envisionWeb/internal/manifestation"
	"envisionWeb/internal/storage"
)

const historyKeyPrefix = "manifestations:"

var ErrManifestationNotFound = errors.New("manifestation not found")

// HistoryService keeps each visitor's saved manifestations as one JSON array blob.
// Every mutation reads the whole array and writes it back.
type HistoryService struct {
	store  storage.BlobStore
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewHistoryService(store storage.BlobStore, logger *zap.Logger) *HistoryService {
	return &HistoryService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func historyKey(visitorID string) string {
	return historyKeyPrefix + visitorID
}

// load returns the records in insertion order (oldest first).
func (s *HistoryService) load(ctx context.Context, visitorID string) ([]manifestation.SavedManifestation, error) {
	raw, ok, err := s.store.Get(ctx, historyKey(visitorID))
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if !ok || len(raw) == 0 {
		return []manifestation.SavedManifestation{}, nil
	}

	var records []manifestation.SavedManifestation
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

func (s *HistoryService) write(ctx context.Context, visitorID string, records []manifestation.SavedManifestation) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.store.Put(ctx, historyKey(visitorID), raw); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// nextID is the current time in milliseconds, bumped past the newest existing id.
func nextID(now time.Time, records []manifestation.SavedManifestation) int64 {
	id := now.UnixMilli()
	for _, r := range records {
		if r.ID >= id {
			id = r.ID + 1
		}
	}
	return id
}

// Append adds exactly one record to the visitor's history.
func (s *HistoryService) Append(ctx context.Context, visitorID string, req manifestation.SaveManifestationRequest) (*manifestation.SavedManifestation, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("manifestation content is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := manifestation.SavedManifestation{
		ID:        nextID(now, records),
		Content:   req.Content,
		AudioPath: req.AudioPath,
		CreatedAt: now,
		FormData:  req.FormData,
	}

	if err := s.write(ctx, visitorID, append(records, record)); err != nil {
		return nil, err
	}

	manifestationsSaved.Inc()
	s.logger.Debug("manifestation saved", zap.String("visitor", visitorID), zap.Int64("id", record.ID))

	return &record, nil
}

// List returns the history most recent first.
func (s *HistoryService) List(ctx context.Context, visitorID string) ([]manifestation.SavedManifestation, error) {
	records, err := s.load(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(records)
	return records, nil
}

// Search keeps the records whose content or life goals contain query, ignoring case.
func (s *HistoryService) Search(ctx context.Context, visitorID, query string) ([]manifestation.SavedManifestation, error) {
	records, err := s.List(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	return FilterManifestations(records, query), nil
}

func FilterManifestations(records []manifestation.SavedManifestation, query string) []manifestation.SavedManifestation {
	if query == "" {
		return records
	}

	fold := cases.Fold()
	needle := fold.String(query)

	matched := make([]manifestation.SavedManifestation, 0, len(records))
	for _, r := range records {
		if strings.Contains(fold.String(r.Content), needle) || strings.Contains(fold.String(r.LifeGoals()), needle) {
			matched = append(matched, r)
		}
	}
	return matched
}

func (s *HistoryService) Get(ctx context.Context, visitorID string, id int64) (*manifestation.SavedManifestation, error) {
	records, err := s.load(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, ErrManifestationNotFound
}

// Delete removes the record with id and rewrites the blob. It reports whether a record was removed.
func (s *HistoryService) Delete(ctx context.Context, visitorID string, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx, visitorID)
	if err != nil {
		return false, err
	}

	kept := slices.DeleteFunc(records, func(r manifestation.SavedManifestation) bool {
		return r.ID == id
	})
	removed := len(kept) != len(records)
	if !removed {
		return false, nil
	}
	if err := s.write(ctx, visitorID, kept); err != nil {
		return false, err
	}

	manifestationsDeleted.Inc()
	return true, nil
}

// HistoryView is what the history page shows for one visitor.
type HistoryView struct {
	Query    string
	Total    int
	Items    []manifestation.SavedManifestation
	Selected *manifestation.SavedManifestation
}

// View lists the history filtered by query. The selection is looked up in the
// unfiltered list, so a selected record stays previewed while searching.
func (s *HistoryService) View(ctx context.Context, visitorID, query string, selectedID int64) (*HistoryView, error) {
	records, err := s.List(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	view := &HistoryView{
		Query: query,
		Total: len(records),
		Items: FilterManifestations(records, query),
	}
	for i := range records {
		if selectedID != 0 && records[i].ID == selectedID {
			view.Selected = &records[i]
			break
		}
	}
	return view, nil
}

// SelectionAfterDelete clears the selection when the selected record was deleted.
func SelectionAfterDelete(deletedID, selectedID int64) int64 {
	if deletedID == selectedID {
		return 0
	}
	return selectedID
}
