package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/clock"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- In-memory store shared by the fake repositories ---
//
// Transactions run one at a time and restore a snapshot when fn fails,
// which is enough to stand in for row locks and rollback.

type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	rooms        map[string]models.Room
	reservations map[string]models.Reservation
	keys         map[string]models.DigitalKey // by reservation id
	profiles     map[string]models.GuestProfile
	identities   map[string]models.IdentityDocument
	payments     map[string]models.PaymentAuth
	biometrics   map[string]models.BiometricCheck
	audits       []models.AuditRecord

	auditFailures int // next n audit writes fail
	auditAttempts int
	seq           int
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        map[string]models.Room{},
		reservations: map[string]models.Reservation{},
		keys:         map[string]models.DigitalKey{},
		profiles:     map[string]models.GuestProfile{},
		identities:   map[string]models.IdentityDocument{},
		payments:     map[string]models.PaymentAuth{},
		biometrics:   map[string]models.BiometricCheck{},
	}
}

type memSnapshot struct {
	rooms        map[string]models.Room
	reservations map[string]models.Reservation
	keys         map[string]models.DigitalKey
	profiles     map[string]models.GuestProfile
	identities   map[string]models.IdentityDocument
	payments     map[string]models.PaymentAuth
	biometrics   map[string]models.BiometricCheck
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		rooms:        cloneMap(s.rooms),
		reservations: cloneMap(s.reservations),
		keys:         cloneMap(s.keys),
		profiles:     cloneMap(s.profiles),
		identities:   cloneMap(s.identities),
		payments:     cloneMap(s.payments),
		biometrics:   cloneMap(s.biometrics),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = snap.rooms
	s.reservations = snap.reservations
	s.keys = snap.keys
	s.profiles = snap.profiles
	s.identities = snap.identities
	s.payments = snap.payments
	s.biometrics = snap.biometrics
}

func (s *memStore) nextID() uint {
	s.seq++
	return uint(s.seq)
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) addRoom(room models.Room) models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.Status == "" {
		room.Status = models.RoomAvailable
	}
	s.rooms[room.ID] = room
	return room
}

func (s *memStore) addReservation(r models.Reservation) models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.CheckInDate = models.DateOnly(r.CheckInDate)
	r.CheckOutDate = models.DateOnly(r.CheckOutDate)
	s.reservations[r.ID] = r
	return r
}

func (s *memStore) reservation(id string) models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations[id]
}

func (s *memStore) room(id string) models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

func (s *memStore) auditActions(entityID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var actions []string
	for _, a := range s.audits {
		if a.EntityID == entityID {
			actions = append(actions, a.Action)
		}
	}
	return actions
}

func (s *memStore) countAudits(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.audits {
		if a.Action == action {
			n++
		}
	}
	return n
}

// --- RoomRepository ---

type memRooms struct{ s *memStore }

func (r memRooms) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = "room-" + room.Number
	}
	r.s.addRoom(*room)
	return nil
}

func (r memRooms) FindByID(ctx context.Context, id string) (*models.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &room, nil
}

func (r memRooms) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Room, error) {
	return r.FindByID(ctx, id)
}

func (r memRooms) List(ctx context.Context, filter repository.RoomFilter) ([]models.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Room
	for _, room := range r.s.rooms {
		if filter.MinGuests > 0 && room.MaxGuests < filter.MinGuests {
			continue
		}
		if filter.Type != "" && room.Type != filter.Type {
			continue
		}
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r memRooms) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.RoomStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	room.Status = status
	r.s.rooms[id] = room
	return nil
}

// --- ReservationRepository ---

type memReservations struct{ s *memStore }

func (r memReservations) Create(ctx context.Context, tx *gorm.DB, res *models.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	stored := *res
	stored.Room, stored.GuestProfile = nil, nil
	r.s.reservations[res.ID] = stored
	return nil
}

func (r memReservations) load(id string) (*models.Reservation, error) {
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if room, ok := r.s.rooms[res.RoomID]; ok {
		res.Room = &room
	}
	if p, ok := r.s.profiles[id]; ok {
		res.GuestProfile = &p
	}
	return &res, nil
}

func (r memReservations) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.load(id)
}

func (r memReservations) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &res, nil
}

func (r memReservations) FindByCode(ctx context.Context, code string) (*models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, res := range r.s.reservations {
		if res.ConfirmationCode != nil && *res.ConfirmationCode == code {
			return r.load(id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memReservations) ListByGuest(ctx context.Context, guestID string) ([]models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Reservation
	for _, res := range r.s.reservations {
		if res.GuestID == guestID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r memReservations) CountOverlapping(ctx context.Context, tx *gorm.DB, roomID string, checkIn, checkOut time.Time, excludeID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, res := range r.s.reservations {
		if id == excludeID || res.RoomID != roomID || !res.Status.IsActive() {
			continue
		}
		if models.Overlaps(res.CheckInDate, res.CheckOutDate, checkIn, checkOut) {
			n++
		}
	}
	return n, nil
}

func (r memReservations) BusyRoomIDs(ctx context.Context, checkIn, checkOut time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, res := range r.s.reservations {
		if res.Status.IsActive() && models.Overlaps(res.CheckInDate, res.CheckOutDate, checkIn, checkOut) && !seen[res.RoomID] {
			seen[res.RoomID] = true
			ids = append(ids, res.RoomID)
		}
	}
	return ids, nil
}

func (r memReservations) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.ReservationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	res.Status = status
	r.s.reservations[id] = res
	return nil
}

func (r memReservations) AssignCode(ctx context.Context, tx *gorm.DB, id, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.reservations {
		if other.ConfirmationCode != nil && *other.ConfirmationCode == code {
			return gorm.ErrDuplicatedKey
		}
	}
	res, ok := r.s.reservations[id]
	if !ok || res.ConfirmationCode != nil {
		return gorm.ErrRecordNotFound
	}
	res.ConfirmationCode = &code
	r.s.reservations[id] = res
	return nil
}

func (r memReservations) CodeExists(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.reservations {
		if res.ConfirmationCode != nil && *res.ConfirmationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r memReservations) SetKeyRevokedAt(ctx context.Context, tx *gorm.DB, id string, at *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	res.KeyRevokedAt = at
	r.s.reservations[id] = res
	return nil
}

// --- DigitalKeyRepository ---

type memKeys struct{ s *memStore }

func (r memKeys) FindByReservation(ctx context.Context, reservationID string) (*models.DigitalKey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k, ok := r.s.keys[reservationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &k, nil
}

func (r memKeys) FindByReservationForUpdate(ctx context.Context, tx *gorm.DB, reservationID string) (*models.DigitalKey, error) {
	return r.FindByReservation(ctx, reservationID)
}

func (r memKeys) Create(ctx context.Context, tx *gorm.DB, key *models.DigitalKey) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if key.ID == "" {
		key.ID = "key-" + key.ReservationID
	}
	r.s.keys[key.ReservationID] = *key
	return nil
}

func (r memKeys) Save(ctx context.Context, tx *gorm.DB, key *models.DigitalKey) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.keys[key.ReservationID] = *key
	return nil
}

func (r memKeys) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for resID, k := range r.s.keys {
		if k.ID == id {
			delete(r.s.keys, resID)
		}
	}
	return nil
}

func (r memKeys) EndForReservation(ctx context.Context, tx *gorm.DB, reservationID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k, ok := r.s.keys[reservationID]
	if !ok || k.EndedAt != nil {
		return nil
	}
	k.ExpiresAt = at
	k.EndedAt = &at
	r.s.keys[reservationID] = k
	return nil
}

// --- VerificationRepository ---

type memVerifications struct{ s *memStore }

func (r memVerifications) GetDB() *gorm.DB { return nil }

func (r memVerifications) CreateGuestProfile(ctx context.Context, tx *gorm.DB, p *models.GuestProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.nextID()
	r.s.profiles[p.ReservationID] = *p
	return nil
}

func (r memVerifications) FindGuestProfile(ctx context.Context, tx *gorm.DB, reservationID string) (*models.GuestProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[reservationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r memVerifications) UpsertIdentity(ctx context.Context, tx *gorm.DB, doc *models.IdentityDocument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc.ID = r.s.nextID()
	r.s.identities[doc.ReservationID] = *doc
	return nil
}

func (r memVerifications) UpsertPayment(ctx context.Context, tx *gorm.DB, auth *models.PaymentAuth) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	auth.ID = r.s.nextID()
	r.s.payments[auth.ReservationID] = *auth
	return nil
}

func (r memVerifications) UpsertBiometric(ctx context.Context, tx *gorm.DB, check *models.BiometricCheck) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	check.ID = r.s.nextID()
	r.s.biometrics[check.ReservationID] = *check
	return nil
}

func (r memVerifications) FindVerification(ctx context.Context, tx *gorm.DB, reservationID string) (*models.Verification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v := &models.Verification{}
	if d, ok := r.s.identities[reservationID]; ok {
		v.Identity = &d
	}
	if p, ok := r.s.payments[reservationID]; ok {
		v.Payment = &p
	}
	if b, ok := r.s.biometrics[reservationID]; ok {
		v.Biometric = &b
	}
	return v, nil
}

// --- AuditRepository ---

type memAudit struct{ s *memStore }

func (r memAudit) Create(ctx context.Context, rec *models.AuditRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.auditAttempts++
	if r.s.auditFailures > 0 {
		r.s.auditFailures--
		return errAuditDown
	}
	r.s.audits = append(r.s.audits, *rec)
	return nil
}

func (r memAudit) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.AuditRecord
	for _, a := range r.s.audits {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- Notifier ---

type recordingNotifier struct {
	mu   sync.Mutex
	sent []ConfirmationMessage
	err  error
}

func (n *recordingNotifier) SendConfirmation(ctx context.Context, msg ConfirmationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

// --- Wiring ---

var (
	errAuditDown = errors.New("audit store unavailable")
	testStart    = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	guestAlice   = Actor{ID: "guest-alice", Role: RoleGuest}
	guestBob     = Actor{ID: "guest-bob", Role: RoleGuest}
	operator     = Actor{ID: "op-1", Role: RoleOperator}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	store        *memStore
	clock        *clock.FakeClock
	audit        *AuditRecorder
	keys         *KeyManager
	codes        *CodeGenerator
	notifier     *recordingNotifier
	reservations ReservationService
	rooms        RoomService
	verification VerificationService
}

func newHarness(cfg ReservationConfig) *harness {
	store := newMemStore()
	clk := clock.Fake(testStart)
	log := discardLogger()

	resRepo := memReservations{store}
	audit := NewAuditRecorder(memAudit{store}, clk, 2, 0, log)
	keys := NewKeyManager(store, memKeys{store}, resRepo, audit, clk, 30*time.Second, log)
	codes := NewCodeGenerator(resRepo, 50)
	availability := NewAvailabilityEngine(resRepo)
	notifier := &recordingNotifier{}

	if cfg.TaxPercent == 0 {
		cfg.TaxPercent = 8.5
	}

	h := &harness{store: store, clock: clk, audit: audit, keys: keys, codes: codes, notifier: notifier}
	h.reservations = NewReservationService(ReservationDeps{
		Tx:            store,
		Rooms:         memRooms{store},
		Reservations:  resRepo,
		Verifications: memVerifications{store},
		Availability:  availability,
		Codes:         codes,
		Keys:          keys,
		Audit:         audit,
		Notifier:      notifier,
		Clock:         clk,
		Log:           log,
	}, cfg)
	h.rooms = NewRoomService(store, memRooms{store}, resRepo, availability, clk, cfg.TaxPercent, log)
	h.verification = NewVerificationService(store, resRepo, memVerifications{store}, clk)
	return h
}

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

func room101() models.Room {
	return models.Room{ID: "room-101", Number: "101", Type: models.RoomStandard, MaxGuests: 2, BasePriceCents: 10000}
}

func aliceDetails() GuestDetails {
	return GuestDetails{FirstName: "Alice", LastName: "Smith", Email: "Alice@Example.com", Phone: "+66 81 000 0000", Country: "TH"}
}

const validCard = "4242 4242 4242 4242"
