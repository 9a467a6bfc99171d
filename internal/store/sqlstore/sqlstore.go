// Package sqlstore implements store.Store on GORM.
package sqlstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrConflict
	}
	return err
}

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

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = models.NewID()
	}
	u.Email = normalizeEmail(u.Email)
	return mapErr(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":       u.Name,
		"email":      u.Email,
		"password":   u.Password,
		"phone":      u.Phone,
		"avatar_url": u.AvatarURL,
		"country":    u.Country,
	})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteUser removes the account and everything it owns in one transaction.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []string
		if err := tx.Model(&models.Post{}).Where("user_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Interaction{}).Error; err != nil {
				return err
			}
		}

		var chatIDs []string
		if err := tx.Model(&models.ChefChat{}).Where("user_id = ?", id).Pluck("id", &chatIDs).Error; err != nil {
			return err
		}
		if len(chatIDs) > 0 {
			if err := tx.Where("chat_id IN ?", chatIDs).Delete(&models.ChefMessage{}).Error; err != nil {
				return err
			}
		}

		for _, owned := range []any{
			&models.Comment{}, &models.Interaction{}, &models.Post{},
			&models.CountryInteraction{}, &models.ChefChat{},
		} {
			if err := tx.Where("user_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// --- posts ---

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	return mapErr(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", p.ID).Updates(map[string]any{
		"content":    p.Content,
		"media_urls": p.MediaURLs,
		"country":    p.Country,
	})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Interaction{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) ListRecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (s *Store) ListPostsByUser(ctx context.Context, userID string) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&posts).Error
	return posts, err
}

// --- comments ---

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.Post{}, c.PostID); err != nil {
			return err
		}
		return mapErr(tx.Create(c).Error)
	})
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at desc, id desc").
		Find(&comments).Error
	return comments, err
}

func (s *Store) CountComments(ctx context.Context, postIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PostID string
		Count  int
	}
	err := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, count(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PostID] = r.Count
	}
	return out, nil
}

// --- interactions ---

func (s *Store) GetInteraction(ctx context.Context, userID, postID string) (*models.Interaction, error) {
	var i models.Interaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&i).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &i, nil
}

func (s *Store) CreateInteraction(ctx context.Context, i *models.Interaction) error {
	if i.ID == "" {
		i.ID = models.NewID()
	}
	return mapErr(s.db.WithContext(ctx).Create(i).Error)
}

func (s *Store) UpdateInteractionType(ctx context.Context, id string, t models.InteractionType) error {
	res := s.db.WithContext(ctx).Model(&models.Interaction{}).Where("id = ?", id).Update("type", t)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteInteraction(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Interaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListInteractionsForPosts(ctx context.Context, postIDs []string) ([]models.Interaction, error) {
	out := []models.Interaction{}
	if len(postIDs) == 0 {
		return out, nil
	}
	err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&out).Error
	return out, err
}

func (s *Store) IncrementCountryInteraction(ctx context.Context, userID, country string) error {
	row := models.CountryInteraction{
		UserID:           userID,
		Country:          country,
		InteractionCount: 1,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "country"}},
			DoUpdates: clause.Assignments(map[string]any{
				"interaction_count": gorm.Expr("user_country_interactions.interaction_count + 1"),
				"updated_at":        time.Now().UTC(),
			}),
		}).
		Create(&row).Error
}

func (s *Store) ListCountryInteractions(ctx context.Context, userID string) ([]models.CountryInteraction, error) {
	out := []models.CountryInteraction{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("interaction_count desc, country asc").
		Find(&out).Error
	return out, err
}

// --- chef ---

func (s *Store) CreateChat(ctx context.Context, c *models.ChefChat) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	return mapErr(s.db.WithContext(ctx).Create(c).Error)
}

func (s *Store) GetChat(ctx context.Context, id string) (*models.ChefChat, error) {
	var c models.ChefChat
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) ListChats(ctx context.Context, userID string) ([]models.ChefChat, error) {
	chats := []models.ChefChat{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc, id desc").
		Find(&chats).Error
	return chats, err
}

func (s *Store) TouchChat(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.ChefChat{}).Where("id = ?", id).UpdateColumn("updated_at", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteChat(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&models.ChefMessage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.ChefChat{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) AddMessage(ctx context.Context, m *models.ChefMessage) error {
	if m.ID == "" {
		m.ID = models.NewID()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.ChefChat{}, m.ChatID); err != nil {
			return err
		}
		return mapErr(tx.Create(m).Error)
	})
}

func (s *Store) ListMessages(ctx context.Context, chatID string) ([]models.ChefMessage, error) {
	msgs := []models.ChefMessage{}
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at asc, id asc").
		Find(&msgs).Error
	return msgs, err
}

// requireRow returns store.ErrNotFound unless a row of model with id exists.
func requireRow(tx *gorm.DB, model any, id string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
