package claims

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dextrack/internal/apperr"
)

// Claim records whether a user has claimed an in-game event distribution.
type Claim struct {
	ID        uint64     `gorm:"primaryKey" json:"-"`
	UserID    string     `gorm:"type:text;not null" json:"userId"`
	EventKey  string     `gorm:"type:text;not null" json:"eventKey"`
	Claimed   bool       `gorm:"not null" json:"claimed"`
	ClaimedAt *time.Time `json:"claimedAt"`
	CreatedAt time.Time  `gorm:"not null" json:"-"`
	UpdatedAt time.Time  `gorm:"not null" json:"updatedAt"`
}

func (Claim) TableName() string { return "event_claims" }

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&Claim{}); err != nil {
		return err
	}
	return gdb.Exec(`create unique index if not exists uq_event_claims_natural
on event_claims(user_id, event_key);`).Error
}

type Repo struct {
	DB  *gorm.DB
	Log zerolog.Logger
	Now func() time.Time
}

func (r *Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r *Repo) List(ctx context.Context, userID string) ([]Claim, error) {
	var out []Claim
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("event_key asc").
		Find(&out).Error; err != nil {
		return nil, apperr.Persistence("claims.List", err)
	}
	return out, nil
}

// Get returns the stored claim, or an unclaimed default when there is none.
func (r *Repo) Get(ctx context.Context, userID, eventKey string) (Claim, error) {
	var c Claim
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND event_key = ?", userID, eventKey).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Claim{UserID: userID, EventKey: eventKey}, nil
		}
		return Claim{}, apperr.Persistence("claims.Get", err)
	}
	return c, nil
}

// Set upserts the claim flag. claimed_at is stamped when claimed and cleared
// when unclaimed.
func (r *Repo) Set(ctx context.Context, userID, eventKey string, claimed bool) (Claim, error) {
	now := r.now()
	c := Claim{
		UserID:    userID,
		EventKey:  eventKey,
		Claimed:   claimed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if claimed {
		c.ClaimedAt = &now
	}

	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"claimed", "claimed_at", "updated_at"}),
	}).Create(&c).Error; err != nil {
		return Claim{}, apperr.Persistence("claims.Set", err)
	}

	r.Log.Debug().Str("user_id", userID).Str("event_key", eventKey).Bool("claimed", claimed).Msg("claim set")
	return r.Get(ctx, userID, eventKey)
}

func (r *Repo) Delete(ctx context.Context, userID, eventKey string) error {
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND event_key = ?", userID, eventKey).
		Delete(&Claim{}).Error; err != nil {
		return apperr.Persistence("claims.Delete", err)
	}
	return nil
}
