// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"clipstream/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumVideos   int
	NumArticles int
	ShouldClean bool
	// SkipBcrypt fills a plaintext placeholder password instead of a hash.
	// Login will not work but seeding is an order of magnitude faster.
	SkipBcrypt bool
}

// Seeder populates the database with demo data. Engagement rows are created
// through plain inserts with the matching counter bumps applied afterwards,
// so seeded counters agree with the ledger.
type Seeder struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewSeeder creates a new Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seeded data, children before parents.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []string{"comments", "likes", "follows", "videos", "articles", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

// SeedUsers creates n demo users. All share the password "password123".
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	password := "password123"
	if !s.opts.SkipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		password = string(hashed)
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, &models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
			Email:    gofakeit.Email(),
			Password: password,
			Bio:      gofakeit.Sentence(10),
			Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		})
	}
	if err := s.db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("seeding users: %w", err)
	}
	log.Printf("Created %d users", len(users))
	return users, nil
}

// SeedContent creates demo videos and articles spread across the users.
func (s *Seeder) SeedContent(users []*models.User) ([]*models.Video, []*models.Article, error) {
	videos := make([]*models.Video, 0, s.opts.NumVideos)
	for i := 0; i < s.opts.NumVideos; i++ {
		owner := users[s.rng.Intn(len(users))]
		videos = append(videos, &models.Video{
			Title:       gofakeit.Sentence(4),
			Description: gofakeit.Paragraph(1, 2, 8, "\n"),
			UserID:      owner.ID,
			FilePath:    fmt.Sprintf("uploads/%s.mp4", gofakeit.UUID()),
			MimeType:    "video/mp4",
			SizeBytes:   int64(gofakeit.Number(1<<20, 50<<20)),
			Published:   true,
			CreatedAt:   s.pastTime(90),
		})
	}
	if len(videos) > 0 {
		if err := s.db.Create(&videos).Error; err != nil {
			return nil, nil, fmt.Errorf("seeding videos: %w", err)
		}
	}

	articles := make([]*models.Article, 0, s.opts.NumArticles)
	for i := 0; i < s.opts.NumArticles; i++ {
		owner := users[s.rng.Intn(len(users))]
		articles = append(articles, &models.Article{
			Title:     gofakeit.Sentence(6),
			Body:      gofakeit.Paragraph(3, 5, 12, "\n\n"),
			UserID:    owner.ID,
			Published: true,
			CreatedAt: s.pastTime(90),
		})
	}
	if len(articles) > 0 {
		if err := s.db.Create(&articles).Error; err != nil {
			return nil, nil, fmt.Errorf("seeding articles: %w", err)
		}
	}

	log.Printf("Created %d videos and %d articles", len(videos), len(articles))
	return videos, articles, nil
}

// SeedEngagement wires likes, follows and comments between the seeded users
// and content, keeping the denormalized counters in step with the rows.
func (s *Seeder) SeedEngagement(users []*models.User, videos []*models.Video, articles []*models.Article) error {
	// Follows: each user follows a random handful of others.
	followCount := 0
	for _, follower := range users {
		n := s.rng.Intn(6)
		seen := map[uint]struct{}{follower.ID: {}}
		for i := 0; i < n; i++ {
			target := users[s.rng.Intn(len(users))]
			if _, dup := seen[target.ID]; dup {
				continue
			}
			seen[target.ID] = struct{}{}

			follow := &models.Follow{
				FollowerID:  follower.ID,
				FollowingID: target.ID,
				Status:      models.FollowStatusActive,
			}
			if err := s.db.Create(follow).Error; err != nil {
				return fmt.Errorf("seeding follow: %w", err)
			}
			if err := s.bumpStat(target.ID, "stats_followers", 1); err != nil {
				return err
			}
			if err := s.bumpStat(follower.ID, "stats_following", 1); err != nil {
				return err
			}
			followCount++
		}
	}

	// Likes: random users like random content.
	refs := make([]models.ContentRef, 0, len(videos)+len(articles))
	owners := make(map[models.ContentRef]uint, cap(refs))
	for _, v := range videos {
		ref := models.ContentRef{Type: models.ContentTypeVideo, ID: v.ID}
		refs = append(refs, ref)
		owners[ref] = v.UserID
	}
	for _, a := range articles {
		ref := models.ContentRef{Type: models.ContentTypeArticle, ID: a.ID}
		refs = append(refs, ref)
		owners[ref] = a.UserID
	}

	likeCount := 0
	for _, ref := range refs {
		n := s.rng.Intn(len(users)/2 + 1)
		perm := s.rng.Perm(len(users))
		for i := 0; i < n; i++ {
			user := users[perm[i]]
			like := &models.Like{
				UserID:      user.ID,
				ContentID:   ref.ID,
				ContentType: ref.Type,
			}
			if err := s.db.Create(like).Error; err != nil {
				return fmt.Errorf("seeding like: %w", err)
			}
			if err := s.bumpStat(owners[ref], "stats_total_likes", 1); err != nil {
				return err
			}
			likeCount++
		}
	}

	// Comments: a few per content item, some with one reply.
	commentCount := 0
	for _, ref := range refs {
		n := s.rng.Intn(4)
		for i := 0; i < n; i++ {
			author := users[s.rng.Intn(len(users))]
			comment := &models.Comment{
				UserID:      author.ID,
				ContentID:   ref.ID,
				ContentType: ref.Type,
				Text:        gofakeit.Sentence(s.rng.Intn(12) + 3),
				Active:      true,
				CreatedAt:   s.pastTime(30),
			}
			if err := s.db.Create(comment).Error; err != nil {
				return fmt.Errorf("seeding comment: %w", err)
			}
			commentCount++

			if s.rng.Intn(3) == 0 {
				replier := users[s.rng.Intn(len(users))]
				reply := &models.Comment{
					UserID:      replier.ID,
					ContentID:   ref.ID,
					ContentType: ref.Type,
					Text:        gofakeit.Sentence(s.rng.Intn(8) + 2),
					ParentID:    &comment.ID,
					Active:      true,
					CreatedAt:   comment.CreatedAt.Add(time.Hour),
				}
				if err := s.db.Create(reply).Error; err != nil {
					return fmt.Errorf("seeding reply: %w", err)
				}
				if err := s.db.Model(&models.Comment{}).
					Where("id = ?", comment.ID).
					UpdateColumn("replies_count", gorm.Expr("replies_count + 1")).Error; err != nil {
					return fmt.Errorf("bumping replies count: %w", err)
				}
				commentCount++
			}
		}
	}

	log.Printf("Created %d follows, %d likes, %d comments", followCount, likeCount, commentCount)
	return nil
}

func (s *Seeder) bumpStat(userID uint, column string, delta int) error {
	err := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("bumping %s: %w", column, err)
	}
	return nil
}

func (s *Seeder) pastTime(maxDays int) time.Time {
	daysBack := s.rng.Intn(maxDays)
	hoursBack := s.rng.Intn(24)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)
}
