// store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"holder-contest-system/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned for unknown participants or handles.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict means the contest window changed since it was read.
	ErrVersionConflict = errors.New("contest window version conflict")
)

// Store is the persistence contract consumed by the contest services.
//
// Every mutating method issues a single SQL statement scoped to one participant
// row (or the singleton contest row), so each call is atomic on its own. No
// method holds a transaction across a caller's oracle round trip.
type Store interface {
	UpsertParticipant(ctx context.Context, id int64, handle string) error
	GetParticipant(ctx context.Context, id int64) (*models.Participant, error)
	FindParticipantByHandle(ctx context.Context, handle string) (*models.Participant, error)
	SetVerification(ctx context.Context, id int64, wallet string, eligible bool) error
	MarkJoined(ctx context.Context, id int64, at time.Time) (bool, error)
	ListEligibleJoined(ctx context.Context) ([]models.Participant, error)
	Revoke(ctx context.Context, id int64, wallet string, clearJoin bool) (bool, error)
	AddPoints(ctx context.Context, id int64, delta int64) error
	Points(ctx context.Context, id int64) (int64, error)
	JoinedStandings(ctx context.Context) ([]models.Standing, error)

	GetContestWindow(ctx context.Context) (models.ContestWindow, error)
	CompareAndSwapContestWindow(ctx context.Context, expectedVersion int64, next models.ContestWindow) (models.ContestWindow, error)

	SaveSnapshot(ctx context.Context, snapshot *models.LeaderboardSnapshot) error
	SetSnapshotArchiveKey(ctx context.Context, id, key string) error
	LatestSnapshot(ctx context.Context) (*models.LeaderboardSnapshot, error)

	Ping(ctx context.Context) error
	Close() error
}

// GormStore implements Store on top of gorm.
type GormStore struct {
	DB *gorm.DB
}

// Open connects with the named driver ("sqlite" or "postgres").
func Open(driver, dsn string, logger gormlogger.Interface) (*gorm.DB, error) {
	if logger == nil {
		logger = gormlogger.Discard
	}
	gcfg := &gorm.Config{Logger: logger, TranslateError: true}

	switch strings.ToLower(driver) {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(sqliteDSN(dsn)), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		// sqlite allows one writer; a single connection avoids SQLITE_BUSY between our own goroutines.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(2)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func sqliteDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dsn)
}

// New wraps db and ensures the schema and the contest singleton exist.
func New(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(models.MigrateModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	window := models.ContestWindow{ID: models.ContestWindowID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&window).Error; err != nil {
		return nil, fmt.Errorf("failed to seed contest window: %w", err)
	}
	return &GormStore{DB: db}, nil
}

// UpsertParticipant creates the participant and its score row, or refreshes the handle.
func (s *GormStore) UpsertParticipant(ctx context.Context, id int64, handle string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := models.Participant{ID: id, Handle: handle}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"handle", "updated_at"}),
		}).Create(&p).Error; err != nil {
			return fmt.Errorf("failed to upsert participant %d: %w", id, err)
		}
		score := models.Score{ParticipantID: id}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&score).Error; err != nil {
			return fmt.Errorf("failed to create score for %d: %w", id, err)
		}
		return nil
	})
}

func (s *GormStore) GetParticipant(ctx context.Context, id int64) (*models.Participant, error) {
	var p models.Participant
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindParticipantByHandle matches without a leading "@".
func (s *GormStore) FindParticipantByHandle(ctx context.Context, handle string) (*models.Participant, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, ErrNotFound
	}
	var p models.Participant
	if err := s.DB.WithContext(ctx).Where("handle = ?", handle).Order("updated_at DESC").First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SetVerification stores the latest wallet and verdict.
func (s *GormStore) SetVerification(ctx context.Context, id int64, wallet string, eligible bool) error {
	res := s.DB.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ?", id).
		Updates(map[string]any{"wallet": wallet, "eligible": eligible})
	if res.Error != nil {
		return fmt.Errorf("failed to set verification for %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkJoined sets joined_at only if it is unset. It reports whether this call set it.
func (s *GormStore) MarkJoined(ctx context.Context, id int64, at time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ? AND joined_at IS NULL", id).
		Update("joined_at", at.UTC())
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark %d joined: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ListEligibleJoined(ctx context.Context) ([]models.Participant, error) {
	var out []models.Participant
	err := s.DB.WithContext(ctx).
		Where("eligible = ? AND wallet IS NOT NULL AND joined_at IS NOT NULL", true).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible participants: %w", err)
	}
	return out, nil
}

// Revoke clears eligibility (and join status when clearJoin) but only while the
// row still holds the wallet that was checked and is still eligible. A false
// result means the row moved on (re-verified or already revoked).
func (s *GormStore) Revoke(ctx context.Context, id int64, wallet string, clearJoin bool) (bool, error) {
	updates := map[string]any{"eligible": false}
	if clearJoin {
		updates["joined_at"] = nil
	}
	res := s.DB.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ? AND eligible = ? AND wallet = ?", id, true, wallet).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to revoke %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// AddPoints applies a signed delta.
func (s *GormStore) AddPoints(ctx context.Context, id int64, delta int64) error {
	res := s.DB.WithContext(ctx).Model(&models.Score{}).
		Where("participant_id = ?", id).
		Update("points", gorm.Expr("points + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to add points for %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Points(ctx context.Context, id int64) (int64, error) {
	var score models.Score
	if err := s.DB.WithContext(ctx).First(&score, "participant_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to read points for %d: %w", id, err)
	}
	return score.Points, nil
}

// JoinedStandings returns every joined participant with points. Rank is left
// zero; ordering is the ranking engine's job.
func (s *GormStore) JoinedStandings(ctx context.Context) ([]models.Standing, error) {
	type row struct {
		ID       int64
		Handle   string
		Points   int64
		JoinedAt time.Time
	}
	var rows []row
	err := s.DB.WithContext(ctx).
		Table("participants").
		Select("participants.id AS id, participants.handle AS handle, COALESCE(scores.points, 0) AS points, participants.joined_at AS joined_at").
		Joins("JOIN scores ON scores.participant_id = participants.id").
		Where("participants.joined_at IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	out := make([]models.Standing, len(rows))
	for i, r := range rows {
		out[i] = models.Standing{
			ParticipantID: r.ID,
			Handle:        r.Handle,
			Points:        r.Points,
			JoinedAt:      r.JoinedAt,
		}
	}
	return out, nil
}

func (s *GormStore) GetContestWindow(ctx context.Context) (models.ContestWindow, error) {
	var w models.ContestWindow
	if err := s.DB.WithContext(ctx).First(&w, "id = ?", models.ContestWindowID).Error; err != nil {
		return models.ContestWindow{}, fmt.Errorf("failed to read contest window: %w", err)
	}
	return w, nil
}

// CompareAndSwapContestWindow writes next only if the stored version still
// equals expectedVersion, and returns the stored result.
func (s *GormStore) CompareAndSwapContestWindow(ctx context.Context, expectedVersion int64, next models.ContestWindow) (models.ContestWindow, error) {
	res := s.DB.WithContext(ctx).Model(&models.ContestWindow{}).
		Where("id = ? AND version = ?", models.ContestWindowID, expectedVersion).
		Updates(map[string]any{
			"start_at": next.StartAt,
			"end_at":   next.EndAt,
			"active":   next.Active,
			"version":  gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return models.ContestWindow{}, fmt.Errorf("failed to update contest window: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ContestWindow{}, ErrVersionConflict
	}
	return s.GetContestWindow(ctx)
}

func (s *GormStore) SaveSnapshot(ctx context.Context, snapshot *models.LeaderboardSnapshot) error {
	if err := s.DB.WithContext(ctx).Create(snapshot).Error; err != nil {
		return fmt.Errorf("failed to save leaderboard snapshot: %w", err)
	}
	return nil
}

func (s *GormStore) SetSnapshotArchiveKey(ctx context.Context, id, key string) error {
	return s.DB.WithContext(ctx).Model(&models.LeaderboardSnapshot{}).
		Where("id = ?", id).
		Update("archive_key", key).Error
}

func (s *GormStore) LatestSnapshot(ctx context.Context) (*models.LeaderboardSnapshot, error) {
	var snap models.LeaderboardSnapshot
	if err := s.DB.WithContext(ctx).Order("taken_at DESC").First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
