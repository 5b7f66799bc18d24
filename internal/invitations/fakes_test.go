package invitations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/models"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/upstream"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/queue"
)

type memStore struct {
	mu      sync.Mutex
	rows    map[int64]models.Invitation
	nextID  int64
	err     error
	deleted []int64
}

func newMemStore(rows ...models.Invitation) *memStore {
	s := &memStore{rows: map[int64]models.Invitation{}, nextID: 100}
	for _, r := range rows {
		s.rows[r.ID] = r
	}
	return s
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memStore) GetByPair(ctx context.Context, invitedUserID, farmID int64) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, r := range s.rows {
		if r.InvitedUserID == invitedUserID && r.FarmID == farmID {
			r := r
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) Insert(ctx context.Context, inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.InvitedUserID == inv.InvitedUserID && r.FarmID == inv.FarmID {
			return ErrDuplicate
		}
	}
	s.nextID++
	inv.ID = s.nextID
	s.rows[inv.ID] = *inv
	return nil
}

func (s *memStore) Update(ctx context.Context, inv *models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[inv.ID]; !ok {
		return ErrNotFound
	}
	s.rows[inv.ID] = *inv
	return nil
}

func (s *memStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *memStore) all() []models.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Invitation, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out
}

type roleAssignment struct {
	userID   int64
	roleName string
}

type fakeIdentity struct {
	roles       map[int64]string
	permissions map[int64][]string
	users       map[string]models.User
	permErr     error
	assignErr   error
	assigned    []roleAssignment
}

func (f *fakeIdentity) RoleName(ctx context.Context, roleID int64) (string, error) {
	name, ok := f.roles[roleID]
	if !ok {
		return "", fmt.Errorf("role name: %w", upstream.ErrNotFound)
	}
	return name, nil
}

func (f *fakeIdentity) Permissions(ctx context.Context, userRoleID int64) ([]string, error) {
	if f.permErr != nil {
		return nil, f.permErr
	}
	return f.permissions[userRoleID], nil
}

func (f *fakeIdentity) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, fmt.Errorf("user by email: %w", upstream.ErrNotFound)
	}
	return &u, nil
}

func (f *fakeIdentity) CreateRoleAssignment(ctx context.Context, userID int64, roleName string) (int64, error) {
	if f.assignErr != nil {
		return 0, f.assignErr
	}
	f.assigned = append(f.assigned, roleAssignment{userID: userID, roleName: roleName})
	return 500 + int64(len(f.assigned)), nil
}

type membershipKey struct{ userID, farmID int64 }

type createdMembership struct {
	userRoleID, farmID, stateID int64
}

type fakeFarms struct {
	farms         map[int64]models.Farm
	memberships   map[membershipKey]models.FarmMembership
	membershipErr map[membershipKey]error
	states        map[string]int64
	createErr     error
	created       []createdMembership
	farmErr       error
}

func (f *fakeFarms) Farm(ctx context.Context, farmID int64) (*models.Farm, error) {
	if f.farmErr != nil {
		return nil, f.farmErr
	}
	farm, ok := f.farms[farmID]
	if !ok {
		return nil, fmt.Errorf("get farm: %w", upstream.ErrNotFound)
	}
	return &farm, nil
}

func (f *fakeFarms) Membership(ctx context.Context, userID, farmID int64) (*models.FarmMembership, error) {
	key := membershipKey{userID, farmID}
	if err := f.membershipErr[key]; err != nil {
		return nil, err
	}
	m, ok := f.memberships[key]
	if !ok {
		return nil, fmt.Errorf("get membership: %w", upstream.ErrNotFound)
	}
	return &m, nil
}

func (f *fakeFarms) CreateMembership(ctx context.Context, userRoleID, farmID, stateID int64) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, createdMembership{userRoleID, farmID, stateID})
	return nil
}

func (f *fakeFarms) MembershipStateID(ctx context.Context, name string) (int64, error) {
	id, ok := f.states[name]
	if !ok {
		return 0, fmt.Errorf("membership state: %w", upstream.ErrNotFound)
	}
	return id, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	states    map[string]int64
	types     map[string]int64
	devices   map[int64][]models.Device
	devErr    error
	sendErr   error
	deleteErr error
	sent      []models.Notification
	cleared   []int64
}

func (f *fakeNotifier) StateID(ctx context.Context, name string) (int64, error) {
	id, ok := f.states[name]
	if !ok {
		return 0, fmt.Errorf("notification state: %w", upstream.ErrNotFound)
	}
	return id, nil
}

func (f *fakeNotifier) TypeID(ctx context.Context, name string) (int64, error) {
	id, ok := f.types[name]
	if !ok {
		return 0, fmt.Errorf("notification type: %w", upstream.ErrNotFound)
	}
	return id, nil
}

func (f *fakeNotifier) Devices(ctx context.Context, userID int64) ([]models.Device, error) {
	if f.devErr != nil {
		return nil, f.devErr
	}
	return f.devices[userID], nil
}

func (f *fakeNotifier) Send(ctx context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) DeleteByInvitation(ctx context.Context, invitationID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, invitationID)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 1, nil
}

type fakeAudit struct {
	events []queue.InvitationResolvedPayload
	err    error
}

func (f *fakeAudit) EnqueueInvitationResolved(ctx context.Context, p queue.InvitationResolvedPayload) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, p)
	return nil
}

var errBoom = errors.New("boom")

var fixedNow = time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
