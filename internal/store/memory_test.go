package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newUser(email string) *models.User {
	u := &models.User{Name: "Test", Email: email, Password: "hash", IsActive: true}
	s.Require().NoError(s.store.Users().Create(s.ctx, u))
	return u
}

func (s *MemoryStoreSuite) TestPhones() {
	s.Run("CreateIfAbsent returns the stored row on the second call", func() {
		first, created, err := s.store.Phones().CreateIfAbsent(s.ctx, &models.PhoneNumber{Number: "+15550001111", RiskScore: 10})
		s.Require().NoError(err)
		s.True(created)

		second, created, err := s.store.Phones().CreateIfAbsent(s.ctx, &models.PhoneNumber{Number: "+15550001111", RiskScore: 90})
		s.Require().NoError(err)
		s.False(created)
		s.Equal(first.ID, second.ID)
		s.Equal(10, second.RiskScore)
	})

	s.Run("strict Create rejects an existing number", func() {
		err := s.store.Phones().Create(s.ctx, &models.PhoneNumber{Number: "+15550001111"})
		s.Require().ErrorIs(err, ErrDuplicate)
	})

	s.Run("UpsertFlag flags an existing row in place", func() {
		phone, err := s.store.Phones().UpsertFlag(s.ctx, &models.PhoneNumber{Number: "+15550001111", FlagReason: "reported", RiskScore: 85}, time.Now())
		s.Require().NoError(err)
		s.True(phone.IsFlagged)
		s.Equal("reported", phone.FlagReason)
		s.Equal(85, phone.RiskScore)

		flagged, err := s.store.Phones().ListFlagged(s.ctx, 10, 0)
		s.Require().NoError(err)
		s.Len(flagged, 1)
	})

	s.Run("EscalateFlag never lowers a stored score", func() {
		first, err := s.store.Phones().EscalateFlag(s.ctx, &models.PhoneNumber{Number: "+18005550000", FlagReason: "high", RiskScore: 75}, time.Now())
		s.Require().NoError(err)
		s.True(first.IsFlagged)

		second, err := s.store.Phones().EscalateFlag(s.ctx, &models.PhoneNumber{Number: "+18005550000", FlagReason: "low", RiskScore: 60}, time.Now())
		s.Require().NoError(err)
		s.Equal(first.ID, second.ID)
		s.Equal(75, second.RiskScore)
		s.Equal("high", second.FlagReason)

		third, err := s.store.Phones().EscalateFlag(s.ctx, &models.PhoneNumber{Number: "+18005550000", FlagReason: "higher", RiskScore: 90}, time.Now())
		s.Require().NoError(err)
		s.Equal(90, third.RiskScore)
		s.Equal("higher", third.FlagReason)
	})

	s.Run("Touch on an unknown number is ErrNotFound", func() {
		_, err := s.store.Phones().Touch(s.ctx, "+10000000000", time.Now())
		s.Require().ErrorIs(err, ErrNotFound)
	})

	s.Run("MergeRiskScore never lowers the score", func() {
		phone, err := s.store.Phones().MergeRiskScore(s.ctx, "+15550001111", 20, time.Now())
		s.Require().NoError(err)
		s.Equal(85, phone.RiskScore)

		phone, err = s.store.Phones().MergeRiskScore(s.ctx, "+15550001111", 95, time.Now())
		s.Require().NoError(err)
		s.Equal(95, phone.RiskScore)
	})
}

func (s *MemoryStoreSuite) TestConcurrentMergeConvergesOnMaximum() {
	_, _, err := s.store.Phones().CreateIfAbsent(s.ctx, &models.PhoneNumber{Number: "+15550002222"})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := 0; i <= 100; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			_, _ = s.store.Phones().MergeRiskScore(s.ctx, "+15550002222", score, time.Now())
		}(i)
	}
	wg.Wait()

	phone, err := s.store.Phones().FindByNumber(s.ctx, "+15550002222")
	s.Require().NoError(err)
	s.Equal(100, phone.RiskScore)
}

func (s *MemoryStoreSuite) TestConcurrentFirstSightingEscalations() {
	var wg sync.WaitGroup
	for _, score := range []int{40, 95, 60, 70} {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			_, _ = s.store.Phones().EscalateFlag(s.ctx, &models.PhoneNumber{Number: "+15550006666", RiskScore: score}, time.Now())
		}(score)
	}
	wg.Wait()

	phone, err := s.store.Phones().FindByNumber(s.ctx, "+15550006666")
	s.Require().NoError(err)
	s.True(phone.IsFlagged)
	s.Equal(95, phone.RiskScore)
}

func (s *MemoryStoreSuite) TestTransaction() {
	boom := errors.New("boom")

	s.Run("rolls back every write on error", func() {
		err := s.store.Transaction(s.ctx, func(tx Store) error {
			s.Require().NoError(tx.Phones().Create(s.ctx, &models.PhoneNumber{Number: "+15550003333"}))
			return boom
		})
		s.Require().ErrorIs(err, boom)

		_, err = s.store.Phones().FindByNumber(s.ctx, "+15550003333")
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("nested failure only undoes the inner unit", func() {
		err := s.store.Transaction(s.ctx, func(tx Store) error {
			s.Require().NoError(tx.Phones().Create(s.ctx, &models.PhoneNumber{Number: "+15550004444"}))
			inner := tx.Transaction(s.ctx, func(inner Store) error {
				s.Require().NoError(inner.Phones().Create(s.ctx, &models.PhoneNumber{Number: "+15550005555"}))
				return boom
			})
			s.Require().ErrorIs(inner, boom)
			return nil
		})
		s.Require().NoError(err)

		_, err = s.store.Phones().FindByNumber(s.ctx, "+15550004444")
		s.NoError(err)
		_, err = s.store.Phones().FindByNumber(s.ctx, "+15550005555")
		s.ErrorIs(err, ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestAlerts() {
	owner := s.newUser("owner@example.com")
	other := s.newUser("other@example.com")

	older := &models.Alert{UserID: owner.ID, Severity: models.SeverityLow, Message: "older", CreatedAt: time.Now().Add(-time.Minute)}
	newer := &models.Alert{UserID: owner.ID, Severity: models.SeverityCritical, Message: "newer"}
	s.Require().NoError(s.store.Alerts().Create(s.ctx, older))
	s.Require().NoError(s.store.Alerts().Create(s.ctx, newer))

	s.Run("lists newest first and filters by severity", func() {
		all, err := s.store.Alerts().List(s.ctx, AlertFilter{UserID: owner.ID, Limit: 10})
		s.Require().NoError(err)
		s.Require().Len(all, 2)
		s.Equal("newer", all[0].Message)

		critical, err := s.store.Alerts().List(s.ctx, AlertFilter{UserID: owner.ID, Severity: models.SeverityCritical})
		s.Require().NoError(err)
		s.Len(critical, 1)
	})

	s.Run("another user cannot touch the alert", func() {
		_, err := s.store.Alerts().MarkRead(s.ctx, newer.ID, other.ID)
		s.ErrorIs(err, ErrNotFound)

		deleted, err := s.store.Alerts().Delete(s.ctx, newer.ID, other.ID)
		s.Require().NoError(err)
		s.False(deleted)
	})

	s.Run("acknowledge keeps the first timestamp", func() {
		first := time.Now().Add(-time.Hour)
		a, err := s.store.Alerts().Acknowledge(s.ctx, newer.ID, owner.ID, first)
		s.Require().NoError(err)
		s.True(a.IsAcknowledged)

		a, err = s.store.Alerts().Acknowledge(s.ctx, newer.ID, owner.ID, time.Now())
		s.Require().NoError(err)
		s.Require().NotNil(a.AcknowledgedAt)
		s.True(a.AcknowledgedAt.Equal(first))
	})

	s.Run("unread count drops after MarkRead", func() {
		_, err := s.store.Alerts().MarkRead(s.ctx, older.ID, owner.ID)
		s.Require().NoError(err)
		n, err := s.store.Alerts().Count(s.ctx, AlertFilter{UserID: owner.ID, UnreadOnly: true})
		s.Require().NoError(err)
		s.Equal(int64(1), n)
	})

	s.Run("MarkAllRead is scoped to the owner", func() {
		s.Require().NoError(s.store.Alerts().Create(s.ctx, &models.Alert{UserID: other.ID, Message: "theirs"}))

		n, err := s.store.Alerts().MarkAllRead(s.ctx, owner.ID)
		s.Require().NoError(err)
		s.Equal(int64(1), n)

		n, err = s.store.Alerts().Count(s.ctx, AlertFilter{UserID: other.ID, UnreadOnly: true})
		s.Require().NoError(err)
		s.Equal(int64(1), n)
	})
}

func (s *MemoryStoreSuite) TestFamily() {
	elderly := s.newUser("elderly@example.com")
	son := s.newUser("son@example.com")
	daughter := s.newUser("daughter@example.com")

	s.Require().NoError(s.store.Family().Create(s.ctx, &models.FamilyMember{UserID: elderly.ID, LinkedUserID: son.ID, Name: "Son", NotifyOnAlert: true}))
	s.Require().NoError(s.store.Family().Create(s.ctx, &models.FamilyMember{UserID: elderly.ID, LinkedUserID: daughter.ID, Name: "Daughter"}))

	s.Run("duplicate pair is rejected", func() {
		err := s.store.Family().Create(s.ctx, &models.FamilyMember{UserID: elderly.ID, LinkedUserID: son.ID, Name: "Again"})
		s.ErrorIs(err, ErrDuplicate)
	})

	s.Run("only notifiable links are listed for fan-out", func() {
		links, err := s.store.Family().ListNotifiable(s.ctx, elderly.ID)
		s.Require().NoError(err)
		s.Require().Len(links, 1)
		s.Equal(son.ID, links[0].LinkedUserID)
	})

	s.Run("SetNotify toggles fan-out", func() {
		_, err := s.store.Family().SetNotify(s.ctx, elderly.ID, daughter.ID, true)
		s.Require().NoError(err)
		links, err := s.store.Family().ListNotifiable(s.ctx, elderly.ID)
		s.Require().NoError(err)
		s.Len(links, 2)
	})

	s.Run("delete of a missing link is ErrNotFound", func() {
		err := s.store.Family().Delete(s.ctx, son.ID, elderly.ID)
		s.ErrorIs(err, ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestUserDeleteCascades() {
	user := s.newUser("gone@example.com")
	keep := s.newUser("keep@example.com")

	scan := &models.ScanRequest{UserID: user.ID, SourceType: models.SourcePhone, SourceFrom: "+15550006666", Status: models.ScanCompleted}
	s.Require().NoError(s.store.Scans().CreateRequest(s.ctx, scan))
	s.Require().NoError(s.store.Scans().CreateResult(s.ctx, &models.DetectionResult{ScanRequestID: scan.ID, ResultLabel: models.LabelSafe}))
	s.Require().NoError(s.store.Alerts().Create(s.ctx, &models.Alert{UserID: user.ID, Message: "x"}))
	s.Require().NoError(s.store.Family().Create(s.ctx, &models.FamilyMember{UserID: user.ID, LinkedUserID: keep.ID, Name: "K"}))
	s.Require().NoError(s.store.Tokens().Create(s.ctx, &models.RefreshToken{UserID: user.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}))

	s.Require().NoError(s.store.Users().Delete(s.ctx, user.ID))

	_, err := s.store.Users().FindByID(s.ctx, user.ID)
	s.ErrorIs(err, ErrNotFound)
	n, err := s.store.Scans().CountResults(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Zero(n)
	links, err := s.store.Family().ListForUser(s.ctx, keep.ID)
	s.Require().NoError(err)
	s.Empty(links)
	_, err = s.store.Tokens().FindActive(s.ctx, "h1")
	s.ErrorIs(err, ErrNotFound)
}

func (s *MemoryStoreSuite) TestUserUniqueness() {
	s.newUser("dup@example.com")
	err := s.store.Users().Create(s.ctx, &models.User{Name: "Dup", Email: "dup@example.com", Password: "x"})
	s.ErrorIs(err, ErrDuplicate)

	device := "device-1"
	s.Require().NoError(s.store.Users().Create(s.ctx, &models.User{Name: "A", Email: "a@example.com", Password: "x", DeviceID: &device}))
	err = s.store.Users().Create(s.ctx, &models.User{ID: uuid.New(), Name: "B", Email: "b@example.com", Password: "x", DeviceID: &device})
	s.ErrorIs(err, ErrDuplicate)
}

func (s *MemoryStoreSuite) TestReports() {
	user := s.newUser("reporter@example.com")
	sms := &models.SMSLog{UserID: user.ID, Sender: "+15552221111", MessageBody: "pay now"}
	s.Require().NoError(s.store.Reports().CreateSMS(s.ctx, sms))
	s.NotEqual(uuid.Nil, sms.ID)
	s.Equal("incoming", sms.MessageType)

	older := &models.Report{UserID: user.ID, ReportType: models.ReportPhone, Reason: "a", Status: models.ReportPending}
	newer := &models.Report{UserID: user.ID, ReportType: models.ReportSMS, Reason: "b", Status: models.ReportPending, ReportedSMSID: &sms.ID}
	s.Require().NoError(s.store.Reports().Create(s.ctx, older))
	s.Require().NoError(s.store.Reports().Create(s.ctx, newer))

	all, err := s.store.Reports().ListByUser(s.ctx, user.ID, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(newer.ID, all[0].ID)

	byType, err := s.store.Reports().ListByType(s.ctx, models.ReportSMS, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(byType, 1)
	s.Equal(newer.ID, byType[0].ID)

	resolved := time.Now()
	got, err := s.store.Reports().UpdateStatus(s.ctx, older.ID, models.ReportResolved, "", &resolved, resolved)
	s.Require().NoError(err)
	s.Equal(models.ReportResolved, got.Status)
	s.NotNil(got.ResolvedAt)

	_, err = s.store.Reports().UpdateStatus(s.ctx, uuid.New(), models.ReportResolved, "", nil, resolved)
	s.ErrorIs(err, ErrNotFound)

	s.Require().NoError(s.store.Users().Delete(s.ctx, user.ID))
	_, err = s.store.Reports().FindByID(s.ctx, newer.ID)
	s.ErrorIs(err, ErrNotFound)
}
