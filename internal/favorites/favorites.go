package favorites

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dextrack/internal/apperr"
)

// Favorite marks an app feature the user pinned, with an optional title.
type Favorite struct {
	ID         uint64    `gorm:"primaryKey" json:"-"`
	UserID     string    `gorm:"type:text;not null" json:"userId"`
	FeatureKey string    `gorm:"type:text;not null" json:"featureKey"`
	Title      *string   `gorm:"type:text" json:"title"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`
}

func (Favorite) TableName() string { return "favorites" }

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&Favorite{}); err != nil {
		return err
	}
	return gdb.Exec(`create unique index if not exists uq_favorites_natural
on favorites(user_id, feature_key);`).Error
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

func (r *Repo) List(ctx context.Context, userID string) ([]Favorite, error) {
	var out []Favorite
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc, feature_key asc").
		Find(&out).Error; err != nil {
		return nil, apperr.Persistence("favorites.List", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, userID, featureKey string) (Favorite, bool, error) {
	var f Favorite
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND feature_key = ?", userID, featureKey).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Favorite{}, false, nil
		}
		return Favorite{}, false, apperr.Persistence("favorites.Get", err)
	}
	return f, true, nil
}

// Put favorites the feature, replacing the title when it already exists.
// created_at keeps its first value.
func (r *Repo) Put(ctx context.Context, userID, featureKey string, title *string) (Favorite, error) {
	now := r.now()
	f := Favorite{
		UserID:     userID,
		FeatureKey: featureKey,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "feature_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
	}).Create(&f).Error; err != nil {
		return Favorite{}, apperr.Persistence("favorites.Put", err)
	}

	r.Log.Debug().Str("user_id", userID).Str("feature_key", featureKey).Msg("favorite put")

	got, found, err := r.Get(ctx, userID, featureKey)
	if err != nil {
		return Favorite{}, err
	}
	if !found {
		return f, nil
	}
	return got, nil
}

func (r *Repo) Delete(ctx context.Context, userID, featureKey string) error {
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND feature_key = ?", userID, featureKey).
		Delete(&Favorite{}).Error; err != nil {
		return apperr.Persistence("favorites.Delete", err)
	}
	return nil
}
