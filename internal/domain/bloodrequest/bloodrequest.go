// Package bloodrequest manages recipients' calls for donors: creation,
// listing, closing, expiry and matching to eligible donors.
//
// Lifecycle: active -> completed (owner or admin closes it) and
// active -> expired (ExpireStale). Both end states are terminal; closing a
// request that is no longer active returns it unchanged.
package bloodrequest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/bloodtype"
	"github.com/dalemusser/bloodconnect/internal/domain/donorsearch"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrNotFound is returned by a Store when no request has the given ID.
var ErrNotFound = errors.New("blood request not found")

// Field limits.
const (
	MaxNameLen    = 120
	MaxDetailsLen = 2000
)

// Store persists blood requests.
type Store interface {
	Insert(ctx context.Context, req *models.BloodRequest) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.BloodRequest, error)
	ListByRecipient(ctx context.Context, recipientID primitive.ObjectID) ([]models.BloodRequest, error)
	ListActive(ctx context.Context, bloodTypes []string) ([]models.BloodRequest, error)
	// Complete moves an active request to completed. changed is false when
	// the request exists but was not active.
	Complete(ctx context.Context, id primitive.ObjectID, at time.Time) (req *models.BloodRequest, changed bool, err error)
	ExpireBefore(ctx context.Context, cutoff, at time.Time) (int64, error)
}

// Searcher is the donor search used for matching.
type Searcher interface {
	Search(ctx context.Context, q donorsearch.Query) ([]donorsearch.DonorResult, error)
}

// Notifier tells matched donors about a new request.
type Notifier interface {
	RequestCreated(ctx context.Context, req models.BloodRequest, donors []donorsearch.DonorResult) error
}

// Actor is the principal performing an operation.
type Actor struct {
	ID      primitive.ObjectID
	IsAdmin bool
}

// NewRequest is the recipient-supplied part of a BloodRequest.
type NewRequest struct {
	BloodType   string `json:"bloodType"`
	Urgency     string `json:"urgency"`
	PatientName string `json:"patientName"`
	Hospital    string `json:"hospital"`
	Details     string `json:"details"`
}

// Config holds the Manager's collaborators. Notifier and Sanitize are
// optional.
type Config struct {
	Store         Store
	Search        Searcher
	Notifier      Notifier
	Sanitize      func(string) string
	NotifyTimeout time.Duration
	Now           func() time.Time
	Log           *zap.Logger
}

// Manager implements the blood request operations.
type Manager struct {
	store         Store
	search        Searcher
	notifier      Notifier
	sanitize      func(string) string
	notifyTimeout time.Duration
	now           func() time.Time
	log           *zap.Logger
	wg            sync.WaitGroup
}

// NewManager builds a Manager from cfg.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		store:         cfg.Store,
		search:        cfg.Search,
		notifier:      cfg.Notifier,
		sanitize:      cfg.Sanitize,
		notifyTimeout: cfg.NotifyTimeout,
		now:           cfg.Now,
		log:           cfg.Log,
	}
	if m.sanitize == nil {
		m.sanitize = strings.TrimSpace
	}
	if m.notifyTimeout <= 0 {
		m.notifyTimeout = 30 * time.Second
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m
}

// Create validates in and stores an active request owned by recipientID.
// Matched donors are notified in the background.
func (m *Manager) Create(ctx context.Context, recipientID primitive.ObjectID, in NewRequest) (*models.BloodRequest, error) {
	req, err := m.build(recipientID, in)
	if err != nil {
		return nil, err
	}
	if err := m.store.Insert(ctx, req); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "insert blood request", err)
	}
	m.notifyAsync(*req)
	return req, nil
}

func (m *Manager) build(recipientID primitive.ObjectID, in NewRequest) (*models.BloodRequest, error) {
	bt := strings.TrimSpace(in.BloodType)
	if !bloodtype.Valid(bt) {
		return nil, apperr.Invalid("bloodType must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
	}
	urgency := strings.ToLower(strings.TrimSpace(in.Urgency))
	if urgency == "" {
		urgency = models.UrgencyNormal
	}
	if !models.IsValidUrgency(urgency) {
		return nil, apperr.Invalid("urgency must be normal, urgent or emergency")
	}
	patient := m.sanitize(in.PatientName)
	hospital := m.sanitize(in.Hospital)
	details := m.sanitize(in.Details)
	switch {
	case patient == "":
		return nil, apperr.Invalid("patientName is required")
	case hospital == "":
		return nil, apperr.Invalid("hospital is required")
	case len(patient) > MaxNameLen:
		return nil, apperr.Invalid("patientName is too long")
	case len(hospital) > MaxNameLen:
		return nil, apperr.Invalid("hospital is too long")
	case len(details) > MaxDetailsLen:
		return nil, apperr.Invalid("details is too long")
	}

	now := m.now().UTC()
	return &models.BloodRequest{
		RecipientID: recipientID,
		BloodType:   bt,
		Urgency:     urgency,
		PatientName: patient,
		Hospital:    hospital,
		Details:     details,
		Status:      models.RequestActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// List returns recipientID's requests, newest first.
func (m *Manager) List(ctx context.Context, recipientID primitive.ObjectID) ([]models.BloodRequest, error) {
	out, err := m.store.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "list blood requests", err)
	}
	if out == nil {
		out = []models.BloodRequest{}
	}
	return out, nil
}

// Get returns a request visible to actor. Requests owned by someone else
// are reported as not found unless actor is an admin.
func (m *Manager) Get(ctx context.Context, id primitive.ObjectID, actor Actor) (*models.BloodRequest, error) {
	req, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Missing("blood request not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "get blood request", err)
	}
	if !actor.IsAdmin && req.RecipientID != actor.ID {
		return nil, apperr.Missing("blood request not found")
	}
	return req, nil
}

// Close marks an active request completed. Closing a completed or expired
// request is a no-op that returns the request as stored.
func (m *Manager) Close(ctx context.Context, id primitive.ObjectID, actor Actor) (*models.BloodRequest, error) {
	req, err := m.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestActive {
		return req, nil
	}

	updated, _, err := m.store.Complete(ctx, id, m.now().UTC())
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Missing("blood request not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "close blood request", err)
	}
	return updated, nil
}

// MatchCandidates returns active donors whose blood type equals the
// request's. Results are ranked by distance only when requester is given.
func (m *Manager) MatchCandidates(ctx context.Context, id primitive.ObjectID, actor Actor, requester *models.GeoPoint) ([]donorsearch.DonorResult, error) {
	req, err := m.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return m.MatchCandidatesByType(ctx, req.BloodType, requester)
}

// MatchCandidatesByType returns active donors of exactly bloodType.
func (m *Manager) MatchCandidatesByType(ctx context.Context, bloodType string, requester *models.GeoPoint) ([]donorsearch.DonorResult, error) {
	return m.search.Search(ctx, donorsearch.Query{
		BloodType:     bloodType,
		Requester:     requester,
		OnlyAvailable: true,
		Limit:         donorsearch.MaxLimit,
	})
}

// ActiveForDonor lists active requests asking for exactly bloodType.
func (m *Manager) ActiveForDonor(ctx context.Context, bloodType string) ([]models.BloodRequest, error) {
	if !bloodtype.Valid(bloodType) {
		return []models.BloodRequest{}, nil
	}
	out, err := m.store.ListActive(ctx, []string{bloodType})
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "list active blood requests", err)
	}
	if out == nil {
		out = []models.BloodRequest{}
	}
	return out, nil
}

// ExpireStale moves active requests created more than ttl ago to expired
// and returns how many changed.
func (m *Manager) ExpireStale(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, apperr.Invalid("request ttl must be positive")
	}
	now := m.now().UTC()
	n, err := m.store.ExpireBefore(ctx, now.Add(-ttl), now)
	if err != nil {
		return 0, apperr.Wrap(apperr.Upstream, "expire blood requests", err)
	}
	return n, nil
}

// Wait blocks until background notifications have finished.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) notifyAsync(req models.BloodRequest) {
	if m.notifier == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.notifyTimeout)
		defer cancel()

		donors, err := m.MatchCandidatesByType(ctx, req.BloodType, nil)
		if err != nil {
			m.log.Warn("match donors for notification failed",
				zap.String("request_id", req.ID.Hex()), zap.Error(err))
			return
		}
		if len(donors) == 0 {
			return
		}
		if err := m.notifier.RequestCreated(ctx, req, donors); err != nil {
			m.log.Warn("notify donors failed",
				zap.String("request_id", req.ID.Hex()),
				zap.Int("donors", len(donors)),
				zap.Error(err))
		}
	}()
}
