// Package store persists users and mind maps with gorm on SQLite or
// Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mindcanvas/internal/mindmap"
)

var (
	ErrNotFound   = errors.New("store: record not found")
	ErrEmailTaken = errors.New("store: email already registered")
)

type Store struct {
	db *gorm.DB
}

// Open connects to dsn, using Postgres when isPostgres is set and SQLite
// otherwise, and migrates the schema.
func Open(dsn string, isPostgres bool) (*Store, error) {
	var dialector gorm.Dialector
	if isPostgres {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if isPostgres {
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(20)
	} else {
		// SQLite allows one writer at a time.
		sqlDB.SetMaxOpenConns(1)
	}

	s := New(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// Migrate creates or updates the tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&User{}, &MindMapRecord{}, &Collaborator{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Users

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	u.Email = normalizeEmail(u.Email)
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return User{}, ErrEmailTaken
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) UsersByID(ctx context.Context, ids []string) ([]User, error) {
	var users []User
	if len(ids) == 0 {
		return users, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

// Mind maps

// CreateMindMap stores m. The caller sets the owner, ids and timestamps.
func (s *Store) CreateMindMap(ctx context.Context, m mindmap.MindMap) (mindmap.MindMap, error) {
	rec := toRecord(m)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return mindmap.MindMap{}, fmt.Errorf("create mind map: %w", err)
	}
	return rec.toMindMap(), nil
}

func (s *Store) MindMap(ctx context.Context, id string) (mindmap.MindMap, error) {
	var rec MindMapRecord
	if err := s.db.WithContext(ctx).Preload("Collaborators").First(&rec, "id = ?", id).Error; err != nil {
		return mindmap.MindMap{}, notFound(err)
	}
	return rec.toMindMap(), nil
}

// ListForUser returns the maps userID owns or collaborates on, most
// recently updated first.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]mindmap.MindMap, error) {
	var recs []MindMapRecord
	shared := s.db.Model(&Collaborator{}).Select("mind_map_id").Where("user_id = ?", userID)
	err := s.db.WithContext(ctx).
		Preload("Collaborators").
		Where("owner_id = ? OR id IN (?)", userID, shared).
		Order("updated_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list mind maps: %w", err)
	}
	out := make([]mindmap.MindMap, len(recs))
	for i, r := range recs {
		out[i] = r.toMindMap()
	}
	return out, nil
}

// AllMindMaps returns every stored map. It feeds the search index rebuild.
func (s *Store) AllMindMaps(ctx context.Context) ([]mindmap.MindMap, error) {
	var recs []MindMapRecord
	if err := s.db.WithContext(ctx).Preload("Collaborators").Order("updated_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load mind maps: %w", err)
	}
	out := make([]mindmap.MindMap, len(recs))
	for i, r := range recs {
		out[i] = r.toMindMap()
	}
	return out, nil
}

// SaveMindMap overwrites every stored field of m.
func (s *Store) SaveMindMap(ctx context.Context, m mindmap.MindMap) (mindmap.MindMap, error) {
	rec := toRecord(m)
	res := s.db.WithContext(ctx).Model(&MindMapRecord{}).Where("id = ?", m.ID).
		Select("title", "description", "is_public", "nodes", "connections", "canvas", "tags", "version", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return mindmap.MindMap{}, fmt.Errorf("save mind map: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return mindmap.MindMap{}, ErrNotFound
	}
	return s.MindMap(ctx, m.ID)
}

func (s *Store) DeleteMindMap(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mind_map_id = ?", id).Delete(&Collaborator{}).Error; err != nil {
			return fmt.Errorf("delete collaborators: %w", err)
		}
		res := tx.Delete(&MindMapRecord{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete mind map: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Collaborators

func (s *Store) AddCollaborator(ctx context.Context, mapID, userID string) error {
	c := Collaborator{MindMapID: mapID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}
	return s.touch(ctx, mapID)
}

func (s *Store) RemoveCollaborator(ctx context.Context, mapID, userID string) error {
	res := s.db.WithContext(ctx).Where("mind_map_id = ? AND user_id = ?", mapID, userID).Delete(&Collaborator{})
	if res.Error != nil {
		return fmt.Errorf("remove collaborator: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return s.touch(ctx, mapID)
}

func (s *Store) touch(ctx context.Context, mapID string) error {
	return s.db.WithContext(ctx).Model(&MindMapRecord{}).Where("id = ?", mapID).
		Update("updated_at", time.Now()).Error
}
