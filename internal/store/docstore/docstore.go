// Package docstore implements store.Store on Badger with JSON documents.
package docstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
)

// Key prefixes. Secondary indexes hold either an id or the primary key they
// point at.
const (
	userPrefix        = "user/"
	userEmailPrefix   = "user_email/"
	postPrefix        = "post/"
	postTimePrefix    = "post_time/"
	userPostPrefix    = "user_post/"
	commentPrefix     = "comment/"
	interactionPrefix = "interaction/"
	interactionIDPref = "interaction_id/"
	countryPrefix     = "country/"
	chatPrefix        = "chat/"
	userChatPrefix    = "user_chat/"
	messagePrefix     = "message/"
)

// conflictRetries bounds retries of a transaction that lost a write race.
const conflictRetries = 5

type Store struct {
	db  *badger.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a Badger database at path. An empty path opens an
// in-memory database.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return New(db), nil
}

func New(db *badger.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// userDoc carries the fields models.User hides from JSON.
type userDoc struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Phone     string    `json:"phone"`
	AvatarURL string    `json:"avatar_url"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		ID: u.ID, Name: u.Name, Email: u.Email, Password: u.Password, Phone: u.Phone,
		AvatarURL: u.AvatarURL, Country: u.Country, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (d userDoc) user() *models.User {
	return &models.User{
		ID: d.ID, Name: d.Name, Email: d.Email, Password: d.Password, Phone: d.Phone,
		AvatarURL: d.AvatarURL, Country: d.Country, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

func (s *Store) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying when Badger reports
// a conflicting concurrent write.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for range conflictRetries {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// --- helpers ---

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func getString(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	val, err := item.ValueCopy(nil)
	return string(val), err
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

// scanJSON decodes every value under prefix, in key order.
func scanJSON[T any](txn *badger.Txn, prefix string) ([]T, error) {
	out := []T{}
	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 50, Prefix: []byte(prefix)})
	defer it.Close()
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// scanValues returns the raw values under prefix as strings.
func scanValues(txn *badger.Txn, prefix string, reverse bool, limit int) ([]string, error) {
	var out []string
	opts := badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 50, Reverse: reverse, Prefix: []byte(prefix)}
	it := txn.NewIterator(opts)
	defer it.Close()

	seek := []byte(prefix)
	if reverse {
		seek = append([]byte(prefix), 0xFF)
	}
	for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, string(val))
	}
	return out, nil
}

func scanKeys(txn *badger.Txn, prefix string) [][]byte {
	var keys [][]byte
	it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefix)})
	defer it.Close()
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

func countKeys(txn *badger.Txn, prefix string) int {
	return len(scanKeys(txn, prefix))
}

func deleteKeys(txn *badger.Txn, keys [][]byte) error {
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// timeKey renders t so that lexical key order matches chronological order.
func timeKey(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixNano())
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func (s *Store) stamp(t *time.Time) {
	if t.IsZero() {
		*t = s.now()
	}
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = models.NewID()
	}
	u.Email = normalizeEmail(u.Email)
	s.stamp(&u.CreatedAt)
	s.stamp(&u.UpdatedAt)

	return s.update(ctx, func(txn *badger.Txn) error {
		taken, err := exists(txn, userEmailPrefix+u.Email)
		if err != nil {
			return err
		}
		if taken {
			return store.ErrConflict
		}
		if taken, err = exists(txn, userPrefix+u.ID); err != nil {
			return err
		} else if taken {
			return store.ErrConflict
		}
		if err := setJSON(txn, userPrefix+u.ID, toUserDoc(u)); err != nil {
			return err
		}
		return txn.Set([]byte(userEmailPrefix+u.Email), []byte(u.ID))
	})
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var d userDoc
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, userPrefix+id, &d)
	})
	if err != nil {
		return nil, err
	}
	return d.user(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var d userDoc
	err := s.view(ctx, func(txn *badger.Txn) error {
		id, err := getString(txn, userEmailPrefix+normalizeEmail(email))
		if err != nil {
			return err
		}
		return getJSON(txn, userPrefix+id, &d)
	})
	if err != nil {
		return nil, err
	}
	return d.user(), nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, id := range ids {
			var d userDoc
			err := getJSON(txn, userPrefix+id, &d)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out[id] = d.user()
		}
		return nil
	})
	return out, err
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	u.Email = normalizeEmail(u.Email)
	return s.update(ctx, func(txn *badger.Txn) error {
		var cur userDoc
		if err := getJSON(txn, userPrefix+u.ID, &cur); err != nil {
			return err
		}
		if cur.Email != u.Email {
			taken, err := exists(txn, userEmailPrefix+u.Email)
			if err != nil {
				return err
			}
			if taken {
				return store.ErrConflict
			}
			if err := txn.Delete([]byte(userEmailPrefix + cur.Email)); err != nil {
				return err
			}
			if err := txn.Set([]byte(userEmailPrefix+u.Email), []byte(u.ID)); err != nil {
				return err
			}
		}
		next := toUserDoc(u)
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = s.now()
		u.CreatedAt, u.UpdatedAt = next.CreatedAt, next.UpdatedAt
		return setJSON(txn, userPrefix+u.ID, next)
	})
}

// DeleteUser removes the account and everything it owns in one transaction.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var u userDoc
		if err := getJSON(txn, userPrefix+id, &u); err != nil {
			return err
		}

		postIDs, err := scanValues(txn, userPostPrefix+id+"/", false, 0)
		if err != nil {
			return err
		}
		for _, pid := range postIDs {
			if err := deletePost(txn, pid); err != nil {
				return err
			}
		}

		// comments and reactions left on other users' posts
		comments, err := scanJSON[models.Comment](txn, commentPrefix)
		if err != nil {
			return err
		}
		for _, c := range comments {
			if c.UserID != id {
				continue
			}
			if err := txn.Delete([]byte(commentPrefix + c.PostID + "/" + c.ID)); err != nil {
				return err
			}
		}
		interactions, err := scanJSON[models.Interaction](txn, interactionPrefix)
		if err != nil {
			return err
		}
		for _, i := range interactions {
			if i.UserID != id {
				continue
			}
			if err := txn.Delete([]byte(interactionKey(i.PostID, id))); err != nil {
				return err
			}
			if err := txn.Delete([]byte(interactionIDPref + i.ID)); err != nil {
				return err
			}
		}

		if err := deleteKeys(txn, scanKeys(txn, countryPrefix+id+"/")); err != nil {
			return err
		}

		chatIDs, err := scanValues(txn, userChatPrefix+id+"/", false, 0)
		if err != nil {
			return err
		}
		for _, cid := range chatIDs {
			if err := deleteChat(txn, cid); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(userEmailPrefix + u.Email)); err != nil {
			return err
		}
		return txn.Delete([]byte(userPrefix + id))
	})
}

// --- posts ---

func postTimeKey(p *models.Post) string {
	return postTimePrefix + timeKey(p.CreatedAt) + "/" + p.ID
}

func userPostKey(p *models.Post) string {
	return userPostPrefix + p.UserID + "/" + timeKey(p.CreatedAt) + "/" + p.ID
}

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if p.ID == "" {
		p.ID = models.NewID()
	}
	s.stamp(&p.CreatedAt)
	s.stamp(&p.UpdatedAt)

	return s.update(ctx, func(txn *badger.Txn) error {
		if taken, err := exists(txn, postPrefix+p.ID); err != nil {
			return err
		} else if taken {
			return store.ErrConflict
		}
		if err := setJSON(txn, postPrefix+p.ID, p); err != nil {
			return err
		}
		if err := txn.Set([]byte(postTimeKey(p)), []byte(p.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(userPostKey(p)), []byte(p.ID))
	})
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, postPrefix+id, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var cur models.Post
		if err := getJSON(txn, postPrefix+p.ID, &cur); err != nil {
			return err
		}
		cur.Content = p.Content
		cur.MediaURLs = p.MediaURLs
		cur.Country = p.Country
		cur.UpdatedAt = s.now()
		return setJSON(txn, postPrefix+p.ID, &cur)
	})
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return deletePost(txn, id)
	})
}

// deletePost removes a post with its comments, interactions and indexes.
func deletePost(txn *badger.Txn, id string) error {
	var p models.Post
	if err := getJSON(txn, postPrefix+id, &p); err != nil {
		return err
	}

	interactions, err := scanJSON[models.Interaction](txn, interactionPrefix+id+"/")
	if err != nil {
		return err
	}
	for _, i := range interactions {
		if err := txn.Delete([]byte(interactionIDPref + i.ID)); err != nil {
			return err
		}
	}
	if err := deleteKeys(txn, scanKeys(txn, interactionPrefix+id+"/")); err != nil {
		return err
	}
	if err := deleteKeys(txn, scanKeys(txn, commentPrefix+id+"/")); err != nil {
		return err
	}

	for _, k := range []string{postPrefix + id, postTimeKey(&p), userPostKey(&p)} {
		if err := txn.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadPosts(txn *badger.Txn, ids []string) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		var p models.Post
		if err := getJSON(txn, postPrefix+id, &p); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Store) ListRecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.view(ctx, func(txn *badger.Txn) error {
		ids, err := scanValues(txn, postTimePrefix, true, limit)
		if err != nil {
			return err
		}
		posts, err = s.loadPosts(txn, ids)
		return err
	})
	return posts, err
}

func (s *Store) ListPostsByUser(ctx context.Context, userID string) ([]models.Post, error) {
	var posts []models.Post
	err := s.view(ctx, func(txn *badger.Txn) error {
		ids, err := scanValues(txn, userPostPrefix+userID+"/", true, 0)
		if err != nil {
			return err
		}
		posts, err = s.loadPosts(txn, ids)
		return err
	})
	return posts, err
}

// --- comments ---

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	s.stamp(&c.CreatedAt)
	return s.update(ctx, func(txn *badger.Txn) error {
		if ok, err := exists(txn, postPrefix+c.PostID); err != nil {
			return err
		} else if !ok {
			return store.ErrNotFound
		}
		return setJSON(txn, commentPrefix+c.PostID+"/"+c.ID, c)
	})
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		comments, err = scanJSON[models.Comment](txn, commentPrefix+postID+"/")
		return err
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(comments, func(a, b models.Comment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return comments, nil
}

func (s *Store) CountComments(ctx context.Context, postIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(postIDs))
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, id := range postIDs {
			if n := countKeys(txn, commentPrefix+id+"/"); n > 0 {
				out[id] = n
			}
		}
		return nil
	})
	return out, err
}

// --- interactions ---

func interactionKey(postID, userID string) string {
	return interactionPrefix + postID + "/" + userID
}

func (s *Store) GetInteraction(ctx context.Context, userID, postID string) (*models.Interaction, error) {
	var i models.Interaction
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, interactionKey(postID, userID), &i)
	})
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *Store) CreateInteraction(ctx context.Context, i *models.Interaction) error {
	if i.ID == "" {
		i.ID = models.NewID()
	}
	s.stamp(&i.CreatedAt)
	s.stamp(&i.UpdatedAt)
	key := interactionKey(i.PostID, i.UserID)

	return s.update(ctx, func(txn *badger.Txn) error {
		taken, err := exists(txn, key)
		if err != nil {
			return err
		}
		if taken {
			return store.ErrConflict
		}
		if err := setJSON(txn, key, i); err != nil {
			return err
		}
		return txn.Set([]byte(interactionIDPref+i.ID), []byte(key))
	})
}

func (s *Store) UpdateInteractionType(ctx context.Context, id string, t models.InteractionType) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		key, err := getString(txn, interactionIDPref+id)
		if err != nil {
			return err
		}
		var i models.Interaction
		if err := getJSON(txn, key, &i); err != nil {
			return err
		}
		i.Type = t
		i.UpdatedAt = s.now()
		return setJSON(txn, key, &i)
	})
}

func (s *Store) DeleteInteraction(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		key, err := getString(txn, interactionIDPref+id)
		if err != nil {
			return err
		}
		if err := txn.Delete([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(interactionIDPref + id))
	})
}

func (s *Store) ListInteractionsForPosts(ctx context.Context, postIDs []string) ([]models.Interaction, error) {
	out := []models.Interaction{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, id := range postIDs {
			list, err := scanJSON[models.Interaction](txn, interactionPrefix+id+"/")
			if err != nil {
				return err
			}
			out = append(out, list...)
		}
		return nil
	})
	return out, err
}

func (s *Store) IncrementCountryInteraction(ctx context.Context, userID, country string) error {
	key := countryPrefix + userID + "/" + country
	return s.update(ctx, func(txn *badger.Txn) error {
		var ci models.CountryInteraction
		err := getJSON(txn, key, &ci)
		switch {
		case errors.Is(err, store.ErrNotFound):
			ci = models.CountryInteraction{UserID: userID, Country: country}
		case err != nil:
			return err
		}
		ci.InteractionCount++
		ci.UpdatedAt = s.now()
		return setJSON(txn, key, &ci)
	})
}

func (s *Store) ListCountryInteractions(ctx context.Context, userID string) ([]models.CountryInteraction, error) {
	var list []models.CountryInteraction
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		list, err = scanJSON[models.CountryInteraction](txn, countryPrefix+userID+"/")
		return err
	})
	if err != nil {
		return nil, err
	}
	// keys are country-ordered already; stable sort keeps that on ties
	slices.SortStableFunc(list, func(a, b models.CountryInteraction) int {
		return cmp.Compare(b.InteractionCount, a.InteractionCount)
	})
	return list, nil
}

// --- chef ---

func (s *Store) CreateChat(ctx context.Context, c *models.ChefChat) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	s.stamp(&c.CreatedAt)
	s.stamp(&c.UpdatedAt)
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := setJSON(txn, chatPrefix+c.ID, c); err != nil {
			return err
		}
		return txn.Set([]byte(userChatPrefix+c.UserID+"/"+c.ID), []byte(c.ID))
	})
}

func (s *Store) GetChat(ctx context.Context, id string) (*models.ChefChat, error) {
	var c models.ChefChat
	err := s.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, chatPrefix+id, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListChats(ctx context.Context, userID string) ([]models.ChefChat, error) {
	chats := []models.ChefChat{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		ids, err := scanValues(txn, userChatPrefix+userID+"/", false, 0)
		if err != nil {
			return err
		}
		for _, id := range ids {
			var c models.ChefChat
			if err := getJSON(txn, chatPrefix+id, &c); err != nil {
				return err
			}
			chats = append(chats, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(chats, func(a, b models.ChefChat) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return chats, nil
}

func (s *Store) TouchChat(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var c models.ChefChat
		if err := getJSON(txn, chatPrefix+id, &c); err != nil {
			return err
		}
		c.UpdatedAt = at.UTC()
		return setJSON(txn, chatPrefix+id, &c)
	})
}

func (s *Store) DeleteChat(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return deleteChat(txn, id)
	})
}

func deleteChat(txn *badger.Txn, id string) error {
	var c models.ChefChat
	if err := getJSON(txn, chatPrefix+id, &c); err != nil {
		return err
	}
	if err := deleteKeys(txn, scanKeys(txn, messagePrefix+id+"/")); err != nil {
		return err
	}
	if err := txn.Delete([]byte(userChatPrefix + c.UserID + "/" + id)); err != nil {
		return err
	}
	return txn.Delete([]byte(chatPrefix + id))
}

func (s *Store) AddMessage(ctx context.Context, m *models.ChefMessage) error {
	if m.ID == "" {
		m.ID = models.NewID()
	}
	s.stamp(&m.CreatedAt)
	key := messagePrefix + m.ChatID + "/" + timeKey(m.CreatedAt) + "/" + m.ID
	return s.update(ctx, func(txn *badger.Txn) error {
		if ok, err := exists(txn, chatPrefix+m.ChatID); err != nil {
			return err
		} else if !ok {
			return store.ErrNotFound
		}
		return setJSON(txn, key, m)
	})
}

func (s *Store) ListMessages(ctx context.Context, chatID string) ([]models.ChefMessage, error) {
	var msgs []models.ChefMessage
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		msgs, err = scanJSON[models.ChefMessage](txn, messagePrefix+chatID+"/")
		return err
	})
	return msgs, err
}
