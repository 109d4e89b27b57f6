package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"civicvote/contexts/participation/voter-signup/domain/entities"
	domainerrors "civicvote/contexts/participation/voter-signup/domain/errors"
	"civicvote/contexts/participation/voter-signup/ports"
)

// Store is an in-memory implementation of every signup port, used by
// tests and the in-memory runtime.
type Store struct {
	mu sync.Mutex

	elections     map[string]entities.ElectionAccess // by slug
	codes         map[string]map[string]entities.AccessCode
	voters        map[string]entities.Voter
	activities    []entities.ActivityEntry
	registrations map[string]entities.RegistrationRecord // by voter ID
	notifications []entities.Notification

	rng *rand.Rand
}

func NewStore() *Store {
	return &Store{
		elections:     make(map[string]entities.ElectionAccess),
		codes:         make(map[string]map[string]entities.AccessCode),
		voters:        make(map[string]entities.Voter),
		registrations: make(map[string]entities.RegistrationRecord),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedRand replaces the randomness source; tests use a fixed seed.
func (s *Store) SeedRand(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

// SetElection seeds the election projection.
func (s *Store) SetElection(election entities.ElectionAccess) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[election.Slug] = election
}

// AddCode seeds an access code.
func (s *Store) AddCode(code entities.AccessCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byCode, ok := s.codes[code.ElectionID]
	if !ok {
		byCode = make(map[string]entities.AccessCode)
		s.codes[code.ElectionID] = byCode
	}
	byCode[code.Code] = code
}

// SetVoter seeds or replaces a voter row.
func (s *Store) SetVoter(voter entities.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[voter.VoterID] = voter
}

// Notifications returns a snapshot of the outbox for assertions.
func (s *Store) Notifications() []entities.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// ActivityCount reports how many entries of one kind were recorded.
func (s *Store) ActivityCount(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, entry := range s.activities {
		if entry.Kind == kind {
			n++
		}
	}
	return n
}

func (s *Store) GetElectionAccess(_ context.Context, slug string) (entities.ElectionAccess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[slug]
	if !ok {
		return entities.ElectionAccess{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) FindCode(_ context.Context, electionID, code string) (entities.AccessCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.codes[electionID][code]
	if !ok {
		return entities.AccessCode{}, domainerrors.ErrCodeNotFound
	}
	return found, nil
}

func (s *Store) GetVoter(_ context.Context, voterID string) (entities.Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[voterID]
	if !ok {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) FindVoterByIdentity(_ context.Context, electionID, authMethod, authID string) (entities.Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, voter := range s.voters {
		if voter.ElectionID == electionID && voter.AuthMethod == authMethod && voter.AuthID == authID {
			return voter, nil
		}
	}
	return entities.Voter{}, domainerrors.ErrVoterNotFound
}

func (s *Store) CreateVoter(_ context.Context, voter entities.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[voter.VoterID] = voter
	return nil
}

func (s *Store) SetConfirmationCode(_ context.Context, voterID, code string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[voterID]
	if !ok {
		return domainerrors.ErrVoterNotFound
	}
	voter.ConfirmationCode = code
	createdAt := at
	voter.ConfirmationCodeCreatedAt = &createdAt
	s.voters[voterID] = voter
	return nil
}

func (s *Store) MergeVoterData(_ context.Context, voterID string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[voterID]
	if !ok {
		return domainerrors.ErrVoterNotFound
	}
	if voter.Data == nil {
		voter.Data = make(map[string]any, len(patch))
	}
	for key, value := range patch {
		voter.Data[key] = value
	}
	s.voters[voterID] = voter
	return nil
}

func (s *Store) Record(_ context.Context, entry entities.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, entry)
	return nil
}

func (s *Store) CountSince(_ context.Context, electionID, kind string, since time.Time, filter ports.ActivityFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, entry := range s.activities {
		if entry.ElectionID != electionID || entry.Kind != kind {
			continue
		}
		if entry.CreatedAt.Before(since) {
			continue
		}
		if filter.Note != "" && entry.Note != filter.Note {
			continue
		}
		if filter.IPAddress != "" && entry.IPAddress != filter.IPAddress {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) SaveRegistration(_ context.Context, record entities.RegistrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[record.VoterID] = record
	return nil
}

func (s *Store) GetRegistrationByVoter(_ context.Context, voterID string) (entities.RegistrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.registrations[voterID]
	if !ok {
		return entities.RegistrationRecord{}, domainerrors.ErrRegistrationNotFound
	}
	return record, nil
}

func (s *Store) Enqueue(_ context.Context, notification entities.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, notification)
	return nil
}

func (s *Store) ListPending(_ context.Context, limit int) ([]entities.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []entities.Notification
	for _, notification := range s.notifications {
		if notification.Status != entities.NotificationPending {
			continue
		}
		pending = append(pending, notification)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkSent(_ context.Context, notificationID string, at time.Time) error {
	return s.markNotification(notificationID, func(n *entities.Notification) {
		n.Status = entities.NotificationSent
		n.Attempts++
		sentAt := at
		n.SentAt = &sentAt
	})
}

func (s *Store) MarkFailed(_ context.Context, notificationID string, _ time.Time, reason string) error {
	return s.markNotification(notificationID, func(n *entities.Notification) {
		n.Status = entities.NotificationFailed
		n.Attempts++
		n.LastError = reason
	})
}

func (s *Store) markNotification(notificationID string, apply func(*entities.Notification)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].NotificationID == notificationID {
			apply(&s.notifications[i])
			return nil
		}
	}
	return domainerrors.ErrNotificationNotFound
}

// NopSender pretends delivery succeeded; the in-memory runtime has no
// gateway behind it.
type NopSender struct{}

func (NopSender) Send(_ context.Context, _ string, _ string) error {
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

var (
	_ ports.ElectionDirectory      = (*Store)(nil)
	_ ports.CodeRepository         = (*Store)(nil)
	_ ports.VoterDirectory         = (*Store)(nil)
	_ ports.ActivityLog            = (*Store)(nil)
	_ ports.RegistrationRepository = (*Store)(nil)
	_ ports.NotificationOutbox     = (*Store)(nil)
	_ ports.Clock                  = (*Store)(nil)
	_ ports.IDGenerator            = (*Store)(nil)
	_ ports.Rand                   = (*Store)(nil)
	_ ports.SMSSender              = NopSender{}
)
