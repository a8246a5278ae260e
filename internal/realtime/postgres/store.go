package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/construction-crm/internal/realtime"
	"gorm.io/gorm"
)

// Document is one feed document persisted as a row. Collections are
// replayed wholesale into the hub, matching the full-snapshot contract.
type Document struct {
	Collection string    `gorm:"column:collection;primaryKey"`
	DocID      string    `gorm:"column:doc_id;primaryKey"`
	Data       []byte    `gorm:"column:data;type:jsonb;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Document) TableName() string {
	return "feed_documents"
}

// Store implements realtime.Feed on top of a SQL database. Every write
// lands in the documents table first, then the affected collection is
// reloaded and published through the embedded hub so subscribers always
// observe post-write authoritative state.
type Store struct {
	db     *gorm.DB
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewStore(db *gorm.DB, hub *realtime.Hub, logger *slog.Logger) *Store {
	return &Store{db: db, hub: hub, logger: logger}
}

// Load replays all persisted collections into the hub. Called once on
// startup before any subscriber attaches.
func (s *Store) Load(ctx context.Context) error {
	var rows []Document
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return fmt.Errorf("load feed documents: %w", err)
	}

	byCollection := make(map[string]realtime.Snapshot)
	for _, row := range rows {
		if byCollection[row.Collection] == nil {
			byCollection[row.Collection] = make(realtime.Snapshot)
		}
		byCollection[row.Collection][row.DocID] = json.RawMessage(row.Data)
	}

	for collection, snapshot := range byCollection {
		s.hub.Replace(collection, snapshot)
	}

	s.logger.Info("feed store loaded", "collections", len(byCollection), "documents", len(rows))
	return nil
}

func (s *Store) Subscribe(collection string, onSnapshot realtime.SnapshotFunc, onError realtime.ErrorFunc) realtime.Unsubscribe {
	return s.hub.Subscribe(collection, onSnapshot, onError)
}

func (s *Store) Set(ctx context.Context, collection, docID string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal document %s/%s: %w", collection, docID, err)
	}

	doc := Document{Collection: collection, DocID: docID, Data: raw, UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, docID).
		Assign(map[string]interface{}{"data": raw, "updated_at": doc.UpdatedAt}).
		FirstOrCreate(&doc).Error
	if err != nil {
		return fmt.Errorf("persist document %s/%s: %w", collection, docID, err)
	}

	return s.reload(ctx, collection)
}

// Update shallow-merges partial fields into an existing document inside a
// transaction. Missing documents are an error, updates never create.
func (s *Store) Update(ctx context.Context, collection, docID string, partial map[string]interface{}) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Document
		if err := tx.Where("collection = ? AND doc_id = ?", collection, docID).First(&row).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return realtime.ErrDocNotFound
			}
			return err
		}

		var doc map[string]interface{}
		if err := json.Unmarshal(row.Data, &doc); err != nil || doc == nil {
			doc = make(map[string]interface{})
		}
		for k, v := range partial {
			doc[k] = v
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("merge document %s/%s: %w", collection, docID, err)
		}

		return tx.Model(&Document{}).
			Where("collection = ? AND doc_id = ?", collection, docID).
			Updates(map[string]interface{}{"data": raw, "updated_at": time.Now()}).Error
	})
	if err != nil {
		return err
	}

	return s.reload(ctx, collection)
}

func (s *Store) Delete(ctx context.Context, collection, docID string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, docID).
		Delete(&Document{})
	if res.Error != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, docID, res.Error)
	}
	if res.RowsAffected == 0 {
		return realtime.ErrDocNotFound
	}

	return s.reload(ctx, collection)
}

// Pump polls the backing table and republishes snapshots so writes from
// other processes reach this process's subscribers. Blocks until ctx is
// cancelled.
func (s *Store) Pump(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("feed pump started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("feed pump stopped")
			return
		case <-ticker.C:
			if err := s.Load(ctx); err != nil {
				s.logger.Error("feed pump reload failed", "error", err)
				for _, collection := range []string{
					realtime.CollectionUsers,
					realtime.CollectionMaterials,
					realtime.CollectionMaterialRequests,
					realtime.CollectionPayrollRecords,
				} {
					s.hub.NotifyError(collection, err)
				}
			}
		}
	}
}

func (s *Store) reload(ctx context.Context, collection string) error {
	var rows []Document
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).Find(&rows).Error; err != nil {
		return fmt.Errorf("reload collection %s: %w", collection, err)
	}

	snapshot := make(realtime.Snapshot, len(rows))
	for _, row := range rows {
		snapshot[row.DocID] = json.RawMessage(row.Data)
	}

	s.hub.Replace(collection, snapshot)
	return nil
}
