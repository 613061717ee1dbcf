package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tanjiaxian99/nusfitness-api/internal/model"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
)

var errStore = errors.New("store down")

type memBookings struct {
	mu   sync.Mutex
	rows []model.Booking
	err  error
}

func (m *memBookings) CountSlot(_ context.Context, facility string, slot time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for _, b := range m.rows {
		if b.Facility == facility && b.Slot.Equal(slot) {
			n++
		}
	}
	return n, nil
}

func (m *memBookings) Insert(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, *b)
	return nil
}

func (m *memBookings) DeleteOne(_ context.Context, email, facility string, slot time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, b := range m.rows {
		if b.Email == email && b.Facility == facility && b.Slot.Equal(slot) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memBookings) CountBySlot(_ context.Context, facility string, start, end time.Time) ([]model.SlotCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[time.Time]int{}
	for _, b := range m.rows {
		if b.Facility == facility && !b.Slot.Before(start) && b.Slot.Before(end) {
			counts[b.Slot]++
		}
	}
	out := make([]model.SlotCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, model.SlotCount{Slot: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot.Before(out[j].Slot) })
	return out, nil
}

func (m *memBookings) ListByOwner(_ context.Context, email, facility string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.rows {
		if b.Email == email && (facility == "" || b.Facility == facility) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Slot.After(out[j].Slot) })
	return out, nil
}

type memCredits struct {
	balances map[string]int
	// raceLoss makes the conditional decrement lose as if another request
	// consumed the last credit first.
	raceLoss bool
}

func (m *memCredits) Get(_ context.Context, email string) (int, error) {
	n, ok := m.balances[email]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return n, nil
}

func (m *memCredits) Decrement(_ context.Context, email string) error {
	if m.raceLoss || m.balances[email] <= 0 {
		return repository.ErrNoCredits
	}
	m.balances[email]--
	return nil
}

func (m *memCredits) ResetAll(_ context.Context, credits int) (int64, error) {
	for k := range m.balances {
		m.balances[k] = credits
	}
	return int64(len(m.balances)), nil
}

type memSessions struct {
	sessions map[int64][]string
	saves    int
}

func newMemSessions() *memSessions { return &memSessions{sessions: map[int64][]string{}} }

func (m *memSessions) Get(_ context.Context, chatID int64) (model.ChatSession, error) {
	menus, ok := m.sessions[chatID]
	if !ok {
		return model.ChatSession{}, repository.ErrNotFound
	}
	return model.ChatSession{ChatID: chatID, Menus: append([]string(nil), menus...)}, nil
}

func (m *memSessions) Save(_ context.Context, s model.ChatSession) error {
	m.saves++
	m.sessions[s.ChatID] = append([]string(nil), s.Menus...)
	return nil
}

type memUsers struct {
	byEmail map[string]model.User
}

func newMemUsers() *memUsers { return &memUsers{byEmail: map[string]model.User{}} }

func (m *memUsers) Register(_ context.Context, email, hash string, _ int) (model.User, error) {
	email = repository.NormalizeEmail(email)
	if _, ok := m.byEmail[email]; ok {
		return model.User{}, repository.ErrEmailExists
	}
	u := model.User{ID: email, Email: email, PasswordHash: hash}
	m.byEmail[email] = u
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := m.byEmail[repository.NormalizeEmail(email)]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByChatID(_ context.Context, chatID int64) (model.User, error) {
	for _, u := range m.byEmail {
		if u.ChatID != nil && *u.ChatID == chatID {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) LinkChat(_ context.Context, email string, chatID int64, name string) error {
	u, ok := m.byEmail[email]
	if !ok {
		return repository.ErrNotFound
	}
	for k, other := range m.byEmail {
		if other.ChatID != nil && *other.ChatID == chatID {
			other.ChatID = nil
			m.byEmail[k] = other
		}
	}
	id := chatID
	u.ChatID = &id
	u.ChatName = &name
	m.byEmail[email] = u
	return nil
}

type published struct {
	key   string
	event any
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{key, event})
	return p.err
}

type memTraffic struct {
	samples []model.TrafficSample
}

func (m *memTraffic) Insert(_ context.Context, s model.TrafficSample) error {
	m.samples = append(m.samples, s)
	return nil
}

func (m *memTraffic) List(_ context.Context, _ repository.TimeRange) ([]model.TrafficSample, error) {
	return m.samples, nil
}

type stubSource struct {
	counts []int
	err    error
	calls  int
}

func (s *stubSource) Fetch(context.Context) ([]int, error) {
	s.calls++
	return s.counts, s.err
}
