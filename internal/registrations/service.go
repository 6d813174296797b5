package registrations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/internal/store"
)

// Business-rule rejections surfaced by Register.
var (
	ErrCapacityExhausted = errors.New("no volunteer slots remaining")
	ErrAlreadyRegistered = errors.New("volunteer already registered for this post")

	// ErrNotVolunteer is returned by Cancel when the caller-asserted
	// email does not match the registration's volunteer email.
	ErrNotVolunteer = errors.New("registration belongs to a different volunteer")
)

// PostStore is the slice of the post catalog the workflow reads and
// decrements.
type PostStore interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	DecrementIfAvailable(ctx context.Context, id string) (bool, error)
}

// RegistrationStore persists registration records.
type RegistrationStore interface {
	Insert(ctx context.Context, r *models.Registration) error
	Exists(ctx context.Context, postID, email string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Registration, error)
	ListByVolunteer(ctx context.Context, email string) ([]models.Registration, error)
	Delete(ctx context.Context, id string) error
}

// Auditor records registration outcomes. Writes are best-effort.
type Auditor interface {
	Record(ctx context.Context, postID, volunteerEmail, outcome string, remaining int) error
}

// Service orchestrates the registration workflow. audit may be nil.
type Service struct {
	posts PostStore
	regs  RegistrationStore
	audit Auditor
}

func NewService(posts PostStore, regs RegistrationStore, audit Auditor) *Service {
	return &Service{posts: posts, regs: regs, audit: audit}
}

func (s *Service) record(ctx context.Context, postID, email, outcome string, remaining int) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, postID, email, outcome, remaining); err != nil {
		log.Printf("audit record error: %v", err)
	}
}

// Register signs a volunteer up for a post. Capacity and duplicate
// checks run before any write, so a rejected registration leaves no
// partial state. The decrement is a conditional atomic store update
// (volunteersNeeded > 0 filter plus $inc), never a read-modify-write
// of the value loaded earlier: that read is stale by decrement time
// under concurrent callers.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	if _, err := primitive.ObjectIDFromHex(req.PostID); err != nil {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidID, req.PostID)
	}

	post, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	if post.Remaining() <= 0 {
		s.record(ctx, req.PostID, req.VolunteerEmail, "capacity_exhausted", post.Remaining())
		return nil, ErrCapacityExhausted
	}

	// Friendly pre-check; the unique index below is the real guard.
	exists, err := s.regs.Exists(ctx, req.PostID, req.VolunteerEmail)
	if err != nil {
		return nil, err
	}
	if exists {
		s.record(ctx, req.PostID, req.VolunteerEmail, "duplicate", post.Remaining())
		return nil, ErrAlreadyRegistered
	}

	reg := models.Registration{
		PostID:         req.PostID,
		PostTitle:      post.Title,
		VolunteerID:    req.VolunteerID,
		VolunteerName:  req.VolunteerName,
		VolunteerEmail: req.VolunteerEmail,
		RegisteredAt:   time.Now(),
	}
	if err := s.regs.Insert(ctx, &reg); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.record(ctx, req.PostID, req.VolunteerEmail, "duplicate", post.Remaining())
			return nil, ErrAlreadyRegistered
		}
		return nil, err
	}

	decremented, err := s.posts.DecrementIfAvailable(ctx, req.PostID)
	if err != nil {
		// Store fault after the insert: surface the failure and keep
		// the registration. Documented limitation, no compensating
		// transaction for faults.
		return nil, err
	}
	if !decremented {
		// Capacity raced to zero between the check and the decrement.
		// The decrement wrote nothing, so removing the registration
		// restores a clean rejection.
		if err := s.regs.Delete(ctx, reg.ID.Hex()); err != nil {
			log.Printf("compensating delete error for registration %s: %v", reg.ID.Hex(), err)
		}
		s.record(ctx, req.PostID, req.VolunteerEmail, "capacity_exhausted", 0)
		return nil, ErrCapacityExhausted
	}

	// Re-read for the authoritative post-decrement counter. A fault
	// here is a store fault like any other: the caller gets the
	// failure, never an estimated counter.
	fresh, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	remaining := fresh.Remaining()

	s.record(ctx, req.PostID, req.VolunteerEmail, "registered", remaining)
	return &models.RegisterResponse{
		RegistrationID:      reg.ID.Hex(),
		NewVolunteersNeeded: remaining,
	}, nil
}

// HasRegistered reports whether a (post, email) pair already has a
// registration. Pure read, no side effects.
func (s *Service) HasRegistered(ctx context.Context, postID, email string) (bool, error) {
	return s.regs.Exists(ctx, postID, email)
}

// ListByVolunteer returns a volunteer's registrations.
func (s *Service) ListByVolunteer(ctx context.Context, email string) ([]models.Registration, error) {
	return s.regs.ListByVolunteer(ctx, email)
}

// Cancel deletes a registration after checking the caller-asserted
// email against the stored volunteer. The post's counter is not
// restored; it is monotonically non-increasing outside the
// administrative overwrite.
func (s *Service) Cancel(ctx context.Context, id, email string) error {
	reg, err := s.regs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if email != reg.VolunteerEmail {
		return ErrNotVolunteer
	}
	return s.regs.Delete(ctx, id)
}
