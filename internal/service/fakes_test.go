package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"reviewhub/internal/apperror"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"
)

// In-memory fakes for the repository interfaces. They mimic the gorm
// behaviour the services rely on: gorm.ErrRecordNotFound on misses and on
// zero-row deletes.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by ID
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return apperror.Conflict("username or email already in use")
		}
	}
	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("user-%04d", r.seq)
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Save(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, search string, page, pageSize int) ([]models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if search == "" || strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			out = append(out, *u)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) DeleteByUsername(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Username == username {
			delete(r.users, id)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeTitleRepo struct {
	mu     sync.Mutex
	titles map[int64]*models.Title
	seq    int64
}

func newFakeTitleRepo() *fakeTitleRepo {
	return &fakeTitleRepo{titles: make(map[int64]*models.Title)}
}

func (r *fakeTitleRepo) Create(ctx context.Context, t *models.Title) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = r.seq
	cp := *t
	r.titles[t.ID] = &cp
	return nil
}

func (r *fakeTitleRepo) Update(ctx context.Context, t *models.Title) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.titles[t.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *t
	r.titles[t.ID] = &cp
	return nil
}

func (r *fakeTitleRepo) ReplaceGenres(ctx context.Context, t *models.Title, genres []models.Genre) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.titles[t.ID]; ok {
		stored.Genres = genres
	}
	t.Genres = genres
	return nil
}

func (r *fakeTitleRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.titles[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.titles, id)
	return nil
}

func (r *fakeTitleRepo) FindByID(ctx context.Context, id int64) (*models.Title, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.titles[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTitleRepo) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Title
	for _, t := range r.titles {
		if filter.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Year != nil && t.Year != *filter.Year {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[int64]*models.Review
	seq     int64
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[int64]*models.Review)}
}

func (r *fakeReviewRepo) Create(ctx context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.TitleID == review.TitleID && existing.AuthorID == review.AuthorID {
			return apperror.Conflict("review for this title by this author already exists")
		}
	}
	r.seq++
	review.ID = r.seq
	cp := *review
	r.reviews[review.ID] = &cp
	return nil
}

func (r *fakeReviewRepo) Save(ctx context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *review
	r.reviews[review.ID] = &cp
	return nil
}

func (r *fakeReviewRepo) Delete(ctx context.Context, titleID, reviewID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rv, ok := r.reviews[reviewID]; ok && rv.TitleID == titleID {
		delete(r.reviews, reviewID)
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeReviewRepo) FindByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rv, ok := r.reviews[reviewID]; ok && rv.TitleID == titleID {
		cp := *rv
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReviewRepo) FindByTitleAndAuthor(ctx context.Context, titleID int64, authorID string) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.TitleID == titleID && rv.AuthorID == authorID {
			cp := *rv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeReviewRepo) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Review
	for _, rv := range r.reviews {
		if rv.TitleID == titleID {
			out = append(out, *rv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeReviewRepo) AverageScore(ctx context.Context, titleID int64) (*float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum, n int
	for _, rv := range r.reviews {
		if rv.TitleID == titleID {
			sum += rv.Score
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := float64(sum) / float64(n)
	return &avg, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[int64]*models.Comment
	seq      int64
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[int64]*models.Comment)}
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = r.seq
	cp := *comment
	r.comments[comment.ID] = &cp
	return nil
}

func (r *fakeCommentRepo) Save(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *comment
	r.comments[comment.ID] = &cp
	return nil
}

func (r *fakeCommentRepo) Delete(ctx context.Context, reviewID, commentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.comments[commentID]; ok && c.ReviewID == reviewID {
		delete(r.comments, commentID)
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeCommentRepo) FindByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.comments[commentID]; ok && c.ReviewID == reviewID {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCommentRepo) ListByReview(ctx context.Context, reviewID int64, page, pageSize int) ([]models.Comment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Comment
	for _, c := range r.comments {
		if c.ReviewID == reviewID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[string]*models.Category // keyed by slug
	seq        int64
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[string]*models.Category)}
}

func (r *fakeCategoryRepo) Create(ctx context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.ID = r.seq
	cp := *c
	r.categories[c.Slug] = &cp
	return nil
}

func (r *fakeCategoryRepo) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.categories[slug]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Category
	for _, c := range r.categories {
		if search == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCategoryRepo) DeleteBySlug(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[slug]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.categories, slug)
	return nil
}

type fakeGenreRepo struct {
	mu     sync.Mutex
	genres map[string]*models.Genre
	seq    int64
}

func newFakeGenreRepo() *fakeGenreRepo {
	return &fakeGenreRepo{genres: make(map[string]*models.Genre)}
}

func (r *fakeGenreRepo) Create(ctx context.Context, g *models.Genre) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	g.ID = r.seq
	cp := *g
	r.genres[g.Slug] = &cp
	return nil
}

func (r *fakeGenreRepo) FindBySlug(ctx context.Context, slug string) (*models.Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.genres[slug]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGenreRepo) FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Genre
	for _, slug := range slugs {
		if g, ok := r.genres[slug]; ok {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGenreRepo) List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Genre
	for _, g := range r.genres {
		if search == "" || strings.Contains(strings.ToLower(g.Name), strings.ToLower(search)) {
			out = append(out, *g)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeGenreRepo) DeleteBySlug(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.genres[slug]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.genres, slug)
	return nil
}

// fakeMailer records every code sent so tests can assert on delivery.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []string // codes in delivery order
	to    []string
	fail  bool
	errBy error
}

func (m *fakeMailer) SendConfirmationCode(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return m.errBy
	}
	m.sent = append(m.sent, code)
	m.to = append(m.to, email)
	return nil
}

// fakeRatingCache tracks hits and invalidations.
type fakeRatingCache struct {
	mu          sync.Mutex
	entries     map[int64]*float64
	invalidated []int64
	sets        int
	gets        int
}

func newFakeRatingCache() *fakeRatingCache {
	return &fakeRatingCache{entries: make(map[int64]*float64)}
}

func (c *fakeRatingCache) Get(ctx context.Context, titleID int64) (*float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[titleID]
	return v, ok
}

func (c *fakeRatingCache) Set(ctx context.Context, titleID int64, rating *float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[titleID] = rating
}

func (c *fakeRatingCache) Invalidate(ctx context.Context, titleID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, titleID)
	c.invalidated = append(c.invalidated, titleID)
}
