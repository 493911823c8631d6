package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and local runs without
// Postgres. Transactions snapshot the whole state and restore it on error;
// concurrent transactions that fail can therefore undo each other's writes.
type Memory struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	seq     int64
	order   map[uuid.UUID]int64
	users   map[uuid.UUID]models.User
	tokens  map[string]models.RefreshToken
	phones  map[string]models.PhoneNumber
	scans   map[uuid.UUID]models.ScanRequest
	results map[uuid.UUID]models.DetectionResult
	alerts  map[uuid.UUID]models.Alert
	family  map[uuid.UUID]models.FamilyMember
	reports map[uuid.UUID]models.Report
	sms     map[uuid.UUID]models.SMSLog
}

func NewMemory() *Memory {
	return &Memory{state: &memState{
		order:   make(map[uuid.UUID]int64),
		users:   make(map[uuid.UUID]models.User),
		tokens:  make(map[string]models.RefreshToken),
		phones:  make(map[string]models.PhoneNumber),
		scans:   make(map[uuid.UUID]models.ScanRequest),
		results: make(map[uuid.UUID]models.DetectionResult),
		alerts:  make(map[uuid.UUID]models.Alert),
		family:  make(map[uuid.UUID]models.FamilyMember),
		reports: make(map[uuid.UUID]models.Report),
		sms:     make(map[uuid.UUID]models.SMSLog),
	}}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		seq:     s.seq,
		order:   cloneMap(s.order),
		users:   cloneMap(s.users),
		tokens:  cloneMap(s.tokens),
		phones:  cloneMap(s.phones),
		scans:   cloneMap(s.scans),
		results: cloneMap(s.results),
		alerts:  cloneMap(s.alerts),
		family:  cloneMap(s.family),
		reports: cloneMap(s.reports),
		sms:     cloneMap(s.sms),
	}
}

// track records insertion order so newest-first listings are stable even
// when timestamps collide.
func (s *memState) track(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

func (m *Memory) Users() UserStore     { return memUsers{m} }
func (m *Memory) Tokens() TokenStore   { return memTokens{m} }
func (m *Memory) Phones() PhoneStore   { return memPhones{m} }
func (m *Memory) Scans() ScanStore     { return memScans{m} }
func (m *Memory) Alerts() AlertStore   { return memAlerts{m} }
func (m *Memory) Family() FamilyStore  { return memFamily{m} }
func (m *Memory) Reports() ReportStore { return memReports{m} }

func (m *Memory) Transaction(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func stamp(created *time.Time) {
	if created.IsZero() {
		*created = time.Now()
	}
}

// --- users ---

type memUsers struct{ m *Memory }

func (s memUsers) Create(_ context.Context, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.state.users {
		if u.Email == user.Email && user.Email != "" {
			return ErrDuplicate
		}
		if u.DeviceID != nil && user.DeviceID != nil && *u.DeviceID == *user.DeviceID {
			return ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stamp(&user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	s.m.state.users[user.ID] = *user
	s.m.state.track(user.ID)
	return nil
}

func (s memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.state.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s memUsers) Delete(_ context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	st := s.m.state
	if _, ok := st.users[id]; !ok {
		return ErrNotFound
	}
	links := make(map[uuid.UUID]bool)
	for lid, l := range st.family {
		if l.UserID == id || l.LinkedUserID == id {
			links[lid] = true
			delete(st.family, lid)
		}
	}
	for aid, a := range st.alerts {
		if a.UserID == id || (a.FamilyMemberID != nil && links[*a.FamilyMemberID]) {
			delete(st.alerts, aid)
		}
	}
	for sid, sr := range st.scans {
		if sr.UserID != id {
			continue
		}
		for rid, r := range st.results {
			if r.ScanRequestID == sid {
				delete(st.results, rid)
			}
		}
		delete(st.scans, sid)
	}
	for rid, r := range st.reports {
		if r.UserID == id {
			delete(st.reports, rid)
		}
	}
	for mid, m := range st.sms {
		if m.UserID == id {
			delete(st.sms, mid)
		}
	}
	for num, p := range st.phones {
		if p.OwnerID != nil && *p.OwnerID == id {
			delete(st.phones, num)
		}
	}
	for h, t := range st.tokens {
		if t.UserID == id {
			delete(st.tokens, h)
		}
	}
	delete(st.users, id)
	return nil
}

// --- refresh tokens ---

type memTokens struct{ m *Memory }

func (s memTokens) Create(_ context.Context, token *models.RefreshToken) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.state.tokens[token.TokenHash]; ok {
		return ErrDuplicate
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	stamp(&token.CreatedAt)
	s.m.state.tokens[token.TokenHash] = *token
	return nil
}

func (s memTokens) FindActive(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.state.tokens[tokenHash]
	if !ok || t.Revoked {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s memTokens) Revoke(_ context.Context, tokenHash string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if t, ok := s.m.state.tokens[tokenHash]; ok && !t.Revoked {
		now := time.Now().UTC()
		t.Revoked = true
		t.RevokedAt = &now
		s.m.state.tokens[tokenHash] = t
	}
	return nil
}

// --- phone numbers ---

type memPhones struct{ m *Memory }

func (s memPhones) FindByNumber(_ context.Context, number string) (*models.PhoneNumber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.state.phones[number]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s memPhones) FindByID(_ context.Context, id uuid.UUID) (*models.PhoneNumber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, p := range s.m.state.phones {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (s memPhones) Touch(_ context.Context, number string, at time.Time) (*models.PhoneNumber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.state.phones[number]
	if !ok {
		return nil, ErrNotFound
	}
	p.LastChecked = &at
	s.m.state.phones[number] = p
	return &p, nil
}

func (s memPhones) insert(phone *models.PhoneNumber) {
	if phone.ID == uuid.Nil {
		phone.ID = uuid.New()
	}
	stamp(&phone.CreatedAt)
	if phone.UpdatedAt.IsZero() {
		phone.UpdatedAt = phone.CreatedAt
	}
	s.m.state.phones[phone.Number] = *phone
	s.m.state.track(phone.ID)
}

func (s memPhones) Create(_ context.Context, phone *models.PhoneNumber) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.state.phones[phone.Number]; ok {
		return ErrDuplicate
	}
	s.insert(phone)
	return nil
}

func (s memPhones) CreateIfAbsent(_ context.Context, phone *models.PhoneNumber) (*models.PhoneNumber, bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if existing, ok := s.m.state.phones[phone.Number]; ok {
		return &existing, false, nil
	}
	s.insert(phone)
	out := *phone
	return &out, true, nil
}

func (s memPhones) UpsertFlag(_ context.Context, seed *models.PhoneNumber, at time.Time) (*models.PhoneNumber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.state.phones[seed.Number]
	if !ok {
		seed.IsFlagged = true
		s.insert(seed)
		out := *seed
		return &out, nil
	}
	p.IsFlagged = true
	p.FlagReason = seed.FlagReason
	p.RiskScore = seed.RiskScore
	p.UpdatedAt = at
	s.m.state.phones[seed.Number] = p
	return &p, nil
}

func (s memPhones) EscalateFlag(_ context.Context, seed *models.PhoneNumber, at time.Time) (*models.PhoneNumber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.state.phones[seed.Number]
	if !ok {
		seed.IsFlagged = true
		s.insert(seed)
		out := *seed
		return &out, nil
	}
	p.IsFlagged = true
	if seed.RiskScore > p.RiskScore {
		p.RiskScore = seed.RiskScore
		p.FlagReason = seed.FlagReason
	}
	p.UpdatedAt = at
	s.m.state.phones[seed.Number] = p
	return &p, nil
}

func (s memPhones) MergeRiskScore(_ context.Context, number string, candidate int, at time.Time) (*models.PhoneNumber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.state.phones[number]
	if !ok {
		return nil, ErrNotFound
	}
	if candidate > p.RiskScore {
		p.RiskScore = candidate
		p.UpdatedAt = at
		s.m.state.phones[number] = p
	}
	return &p, nil
}

func (s memPhones) sorted(keep func(models.PhoneNumber) bool) []models.PhoneNumber {
	out := make([]models.PhoneNumber, 0)
	for _, p := range s.m.state.phones {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return s.m.state.order[out[i].ID] > s.m.state.order[out[j].ID]
	})
	return out
}

func (s memPhones) ListFlagged(_ context.Context, limit, offset int) ([]models.PhoneNumber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := s.sorted(func(p models.PhoneNumber) bool { return p.IsFlagged })
	return page(out, limit, offset), nil
}

func (s memPhones) Search(_ context.Context, query string, limit int) ([]models.PhoneNumber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	q := strings.ToLower(query)
	out := s.sorted(func(p models.PhoneNumber) bool {
		return strings.Contains(p.Number, query) ||
			(p.Info != nil && strings.Contains(strings.ToLower(*p.Info), q)) ||
			(p.Origin != nil && strings.Contains(strings.ToLower(*p.Origin), q))
	})
	return page(out, limit, 0), nil
}

func (s memPhones) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.PhoneNumber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.sorted(func(p models.PhoneNumber) bool { return p.OwnerID != nil && *p.OwnerID == ownerID }), nil
}

// --- scans ---

type memScans struct{ m *Memory }

func (s memScans) CreateRequest(_ context.Context, req *models.ScanRequest) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	stamp(&req.Timestamp)
	s.m.state.scans[req.ID] = *req
	s.m.state.track(req.ID)
	return nil
}

func (s memScans) SetStatus(_ context.Context, id uuid.UUID, status models.ScanStatus, completedAt *time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.state.scans[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	r.CompletedAt = completedAt
	s.m.state.scans[id] = r
	return nil
}

func (s memScans) CreateResult(_ context.Context, result *models.DetectionResult) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	stamp(&result.CreatedAt)
	s.m.state.results[result.ID] = *result
	s.m.state.track(result.ID)
	return nil
}

func (s memScans) ListRequests(_ context.Context, userID uuid.UUID, limit int) ([]models.ScanRequest, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]models.ScanRequest, 0)
	for _, r := range s.m.state.scans {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.m.state.order[out[i].ID] > s.m.state.order[out[j].ID] })
	return page(out, limit, 0), nil
}

func (s memScans) CountRequests(_ context.Context, userID uuid.UUID) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, r := range s.m.state.scans {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s memScans) CountResults(_ context.Context, userID uuid.UUID) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, r := range s.m.state.results {
		if req, ok := s.m.state.scans[r.ScanRequestID]; ok && req.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- alerts ---

type memAlerts struct{ m *Memory }

func (s memAlerts) Create(_ context.Context, alert *models.Alert) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	stamp(&alert.CreatedAt)
	s.m.state.alerts[alert.ID] = *alert
	s.m.state.track(alert.ID)
	return nil
}

func (s memAlerts) owned(id, userID uuid.UUID) (models.Alert, bool) {
	a, ok := s.m.state.alerts[id]
	if !ok || a.UserID != userID {
		return models.Alert{}, false
	}
	return a, true
}

func (s memAlerts) MarkRead(_ context.Context, id, userID uuid.UUID) (*models.Alert, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.owned(id, userID)
	if !ok {
		return nil, ErrNotFound
	}
	a.IsRead = true
	s.m.state.alerts[id] = a
	return &a, nil
}

func (s memAlerts) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for id, a := range s.m.state.alerts {
		if a.UserID == userID && !a.IsRead {
			a.IsRead = true
			s.m.state.alerts[id] = a
			n++
		}
	}
	return n, nil
}

func (s memAlerts) Acknowledge(_ context.Context, id, userID uuid.UUID, at time.Time) (*models.Alert, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.owned(id, userID)
	if !ok {
		return nil, ErrNotFound
	}
	if !a.IsAcknowledged {
		by := userID
		a.IsAcknowledged = true
		a.AcknowledgedAt = &at
		a.AcknowledgedBy = &by
		s.m.state.alerts[id] = a
	}
	return &a, nil
}

func (s memAlerts) Delete(_ context.Context, id, userID uuid.UUID) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.owned(id, userID); !ok {
		return false, nil
	}
	delete(s.m.state.alerts, id)
	return true, nil
}

func (s memAlerts) filtered(f AlertFilter) []models.Alert {
	out := make([]models.Alert, 0)
	for _, a := range s.m.state.alerts {
		if a.UserID != f.UserID ||
			(f.UnreadOnly && a.IsRead) ||
			(f.UnacknowledgedOnly && a.IsAcknowledged) ||
			(f.Severity != "" && a.Severity != f.Severity) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.m.state.order[out[i].ID] > s.m.state.order[out[j].ID]
	})
	return out
}

func (s memAlerts) List(_ context.Context, f AlertFilter) ([]models.Alert, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return page(s.filtered(f), f.Limit, f.Offset), nil
}

func (s memAlerts) Count(_ context.Context, f AlertFilter) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return int64(len(s.filtered(f))), nil
}

// --- family ---

type memFamily struct{ m *Memory }

func (s memFamily) find(primaryID, linkedID uuid.UUID) (models.FamilyMember, bool) {
	for _, l := range s.m.state.family {
		if l.UserID == primaryID && l.LinkedUserID == linkedID {
			return l, true
		}
	}
	return models.FamilyMember{}, false
}

func (s memFamily) Create(_ context.Context, link *models.FamilyMember) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.find(link.UserID, link.LinkedUserID); ok {
		return ErrDuplicate
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	stamp(&link.CreatedAt)
	link.UpdatedAt = link.CreatedAt
	s.m.state.family[link.ID] = *link
	s.m.state.track(link.ID)
	return nil
}

func (s memFamily) Find(_ context.Context, primaryID, linkedID uuid.UUID) (*models.FamilyMember, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	l, ok := s.find(primaryID, linkedID)
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (s memFamily) Delete(_ context.Context, primaryID, linkedID uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	l, ok := s.find(primaryID, linkedID)
	if !ok {
		return ErrNotFound
	}
	delete(s.m.state.family, l.ID)
	return nil
}

func (s memFamily) SetNotify(_ context.Context, primaryID, linkedID uuid.UUID, notify bool) (*models.FamilyMember, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	l, ok := s.find(primaryID, linkedID)
	if !ok {
		return nil, ErrNotFound
	}
	l.NotifyOnAlert = notify
	l.UpdatedAt = time.Now()
	s.m.state.family[l.ID] = l
	return &l, nil
}

func (s memFamily) list(keep func(models.FamilyMember) bool) []models.FamilyMember {
	out := make([]models.FamilyMember, 0)
	for _, l := range s.m.state.family {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.m.state.order[out[i].ID] < s.m.state.order[out[j].ID] })
	return out
}

func (s memFamily) ListNotifiable(_ context.Context, primaryID uuid.UUID) ([]models.FamilyMember, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.list(func(l models.FamilyMember) bool { return l.UserID == primaryID && l.NotifyOnAlert }), nil
}

func (s memFamily) ListForUser(_ context.Context, userID uuid.UUID) ([]models.FamilyMember, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.list(func(l models.FamilyMember) bool { return l.UserID == userID || l.LinkedUserID == userID }), nil
}

// --- reports ---

type memReports struct{ m *Memory }

func (s memReports) Create(_ context.Context, report *models.Report) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	stamp(&report.CreatedAt)
	report.UpdatedAt = report.CreatedAt
	s.m.state.reports[report.ID] = *report
	s.m.state.track(report.ID)
	return nil
}

func (s memReports) CreateSMS(_ context.Context, sms *models.SMSLog) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if sms.ID == uuid.Nil {
		sms.ID = uuid.New()
	}
	if sms.MessageType == "" {
		sms.MessageType = "incoming"
	}
	stamp(&sms.CreatedAt)
	s.m.state.sms[sms.ID] = *sms
	s.m.state.track(sms.ID)
	return nil
}

func (s memReports) FindByID(_ context.Context, id uuid.UUID) (*models.Report, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.state.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s memReports) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Report, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return page(s.list(func(r models.Report) bool { return r.UserID == userID }), limit, offset), nil
}

func (s memReports) ListByType(_ context.Context, reportType string, limit, offset int) ([]models.Report, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return page(s.list(func(r models.Report) bool { return r.ReportType == reportType }), limit, offset), nil
}

func (s memReports) UpdateStatus(_ context.Context, id uuid.UUID, status, notes string, resolvedAt *time.Time, at time.Time) (*models.Report, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.state.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = status
	if notes != "" {
		r.AdminNotes = notes
	}
	if resolvedAt != nil {
		ts := *resolvedAt
		r.ResolvedAt = &ts
	}
	r.UpdatedAt = at
	s.m.state.reports[id] = r
	return &r, nil
}

// list returns matching reports newest first. Callers hold the lock.
func (s memReports) list(keep func(models.Report) bool) []models.Report {
	out := make([]models.Report, 0)
	for _, r := range s.m.state.reports {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.m.state.order[out[i].ID] > s.m.state.order[out[j].ID] })
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
