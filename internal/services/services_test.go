package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/notify"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/scoring"
	"github.com/ahmetcoskunkizilkaya/scamshield-backend/internal/store"
)

// fixedScorer returns the same score for every number.
type fixedScorer struct {
	score int
}

func (f fixedScorer) Score(context.Context, string, string) scoring.Judgment {
	th := scoring.ThresholdsFrom(config.DefaultScoring())
	return th.Finalize(scoring.Judgment{RiskScore: f.score, Factors: []string{"fixed"}, Method: "fixed"})
}

// faultyStore swaps in broken sub-stores, including inside transactions.
type faultyStore struct {
	store.Store
	phones store.PhoneStore
	family store.FamilyStore
	scans  store.ScanStore
}

func (f faultyStore) Phones() store.PhoneStore {
	if f.phones != nil {
		return f.phones
	}
	return f.Store.Phones()
}

func (f faultyStore) Family() store.FamilyStore {
	if f.family != nil {
		return f.family
	}
	return f.Store.Family()
}

func (f faultyStore) Scans() store.ScanStore {
	if f.scans != nil {
		return f.scans
	}
	return f.Store.Scans()
}

func (f faultyStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(faultyStore{Store: tx, phones: f.phones, family: f.family, scans: f.scans})
	})
}

var errConnReset = errors.New("connection reset by peer")

type brokenFamily struct{ store.FamilyStore }

func (brokenFamily) ListNotifiable(context.Context, uuid.UUID) ([]models.FamilyMember, error) {
	return nil, errConnReset
}

// lateLookup misses every lookup, as when a concurrent detection inserts
// the number after this one looked.
type lateLookup struct{ store.PhoneStore }

func (lateLookup) Touch(context.Context, string, time.Time) (*models.PhoneNumber, error) {
	return nil, store.ErrNotFound
}

type brokenScans struct{ store.ScanStore }

func (brokenScans) CreateResult(context.Context, *models.DetectionResult) error {
	return errConnReset
}

type ServicesSuite struct {
	suite.Suite
	ctx       context.Context
	mem       *store.Memory
	published *notify.Recorder

	phones    *PhoneRegistry
	alerts    *AlertManager
	family    *FamilyLinkRegistry
	detection *DetectionOrchestrator
	reports   *ReportService
}

func TestServicesSuite(t *testing.T) {
	suite.Run(t, new(ServicesSuite))
}

func (s *ServicesSuite) SetupTest() {
	s.ctx = context.Background()
	s.mem = store.NewMemory()
	s.wire(s.mem, scoring.NewHeuristic(config.DefaultScoring()))
}

func (s *ServicesSuite) wire(st store.Store, scorer scoring.RiskScorer) {
	cfg := config.DefaultScoring()
	s.published = &notify.Recorder{}
	s.phones = NewPhoneRegistry(st, cfg.DefaultRegion)
	s.alerts = NewAlertManager(st, s.published, cfg)
	s.family = NewFamilyLinkRegistry(st)
	s.detection = NewDetectionOrchestrator(st, s.phones, scorer, s.alerts, cfg)
	s.reports = NewReportService(st, s.phones)
}

func (s *ServicesSuite) newUser(elderly bool) *models.User {
	u := &models.User{Name: "User", Email: uuid.NewString() + "@example.com", Password: "x", IsElderly: elderly, IsActive: true}
	s.Require().NoError(s.mem.Users().Create(s.ctx, u))
	return u
}

func (s *ServicesSuite) alertsFor(userID uuid.UUID) []models.Alert {
	alerts, err := s.alerts.List(s.ctx, userID, 0, 0, false)
	s.Require().NoError(err)
	return alerts
}

func (s *ServicesSuite) TestPhoneRegistry() {
	s.Run("check on an unknown number is a not-found result", func() {
		res, err := s.phones.Check(s.ctx, "+1 (555) 000-1111")
		s.Require().NoError(err)
		s.False(res.Found)
		s.Equal("+15550001111", res.PhoneNumber)
		s.NotEmpty(res.Message)
	})

	s.Run("strict add rejects a known number as a validation error", func() {
		_, err := s.phones.Add(s.ctx, dto.AddPhoneRequest{PhoneNumber: "+15550002222"}, nil)
		s.Require().NoError(err)

		_, err = s.phones.Add(s.ctx, dto.AddPhoneRequest{PhoneNumber: "+1 555 000 2222"}, nil)
		s.Require().ErrorIs(err, ErrDuplicatePhone)
		s.ErrorIs(err, ErrValidation)
	})

	s.Run("add fills the country code", func() {
		phone, err := s.phones.Add(s.ctx, dto.AddPhoneRequest{PhoneNumber: "+842412345678"}, nil)
		s.Require().NoError(err)
		s.Require().NotNil(phone.CountryCode)
		s.Equal("+84", *phone.CountryCode)
	})

	s.Run("flag overwrites, merge only raises", func() {
		_, err := s.phones.Flag(s.ctx, "+15550003333", "robocall", 90)
		s.Require().NoError(err)
		phone, err := s.phones.Flag(s.ctx, "+15550003333", "operator review", 35)
		s.Require().NoError(err)
		s.Equal(35, phone.RiskScore)
		s.Equal("operator review", phone.FlagReason)

		phone, err = s.phones.MergeRiskScore(s.ctx, "+15550003333", 20)
		s.Require().NoError(err)
		s.Equal(35, phone.RiskScore)
	})

	s.Run("lookup refreshes last_checked", func() {
		phone, err := s.phones.Lookup(s.ctx, "+15550003333")
		s.Require().NoError(err)
		s.NotNil(phone.LastChecked)
	})

	s.Run("a number without digits is invalid", func() {
		_, err := s.phones.Check(s.ctx, "call me")
		s.ErrorIs(err, ErrInvalidPhone)
	})

	s.Run("a number longer than E.164 is invalid on every write path", func() {
		long := "+123456789012345678901234"
		user := s.newUser(false)

		_, err := s.phones.Add(s.ctx, dto.AddPhoneRequest{PhoneNumber: long}, nil)
		s.ErrorIs(err, ErrInvalidPhone)
		_, err = s.phones.Flag(s.ctx, long, "robocall", 90)
		s.ErrorIs(err, ErrInvalidPhone)
		_, err = s.detection.DetectScam(s.ctx, user.ID, long, "verify now")
		s.ErrorIs(err, ErrInvalidPhone)
		s.NotErrorIs(err, ErrStore)
		_, err = s.reports.ReportPhone(s.ctx, user.ID, dto.ReportPhoneRequest{PhoneNumber: long, Reason: "spam"})
		s.ErrorIs(err, ErrInvalidPhone)

		_, err = s.phones.Check(s.ctx, "+123456789012345")
		s.NoError(err)
	})
}

func (s *ServicesSuite) TestDetectScam_TollFreeWithScamContext() {
	user := s.newUser(false)

	resp, err := s.detection.DetectScam(s.ctx, user.ID, "+18005551234", "your account is suspended, verify now")
	s.Require().NoError(err)

	s.Equal(60, resp.Analysis.RiskScore)
	s.Equal(models.LabelSuspicious, resp.Analysis.Label)
	s.Equal(80, resp.Analysis.Confidence)
	s.True(resp.AlertCreated)
	s.Equal(RecommendCaution, resp.Recommendation)

	alerts := s.alertsFor(user.ID)
	s.Require().Len(alerts, 1)
	s.Equal(models.SeverityHigh, alerts[0].Severity)
	s.Equal(resp.DetectionResultID, alerts[0].DetectionResultID)

	phone, err := s.mem.Phones().FindByNumber(s.ctx, "+18005551234")
	s.Require().NoError(err)
	s.True(phone.IsFlagged)
	s.Equal(60, phone.RiskScore)

	scans, err := s.mem.Scans().ListRequests(s.ctx, user.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(scans, 1)
	s.Equal(models.ScanCompleted, scans[0].Status)
	s.NotNil(scans[0].CompletedAt)

	s.Len(s.published.Events(), 1)
}

func (s *ServicesSuite) TestDetectScam_CleanNumber() {
	user := s.newUser(false)

	resp, err := s.detection.DetectScam(s.ctx, user.ID, "+12345678901", "")
	s.Require().NoError(err)

	s.Equal(0, resp.Analysis.RiskScore)
	s.Equal(models.LabelSafe, resp.Analysis.Label)
	s.False(resp.AlertCreated)
	s.Nil(resp.AlertID)
	s.Equal(RecommendSafe, resp.Recommendation)
	s.False(resp.PhoneCheck.Found)

	_, err = s.mem.Phones().FindByNumber(s.ctx, "+12345678901")
	s.ErrorIs(err, store.ErrNotFound)
	s.Empty(s.alertsFor(user.ID))
}

func (s *ServicesSuite) TestDetectScam_MergesIntoFlaggedRecord() {
	s.wire(s.mem, fixedScorer{score: 55})
	user := s.newUser(false)
	_, err := s.phones.Flag(s.ctx, "+15557654321", "reported", 30)
	s.Require().NoError(err)

	resp, err := s.detection.DetectScam(s.ctx, user.ID, "+15557654321", "")
	s.Require().NoError(err)

	phone, err := s.mem.Phones().FindByNumber(s.ctx, "+15557654321")
	s.Require().NoError(err)
	s.Equal(55, phone.RiskScore)
	s.Equal(55, resp.PhoneCheck.RiskScore)

	alerts := s.alertsFor(user.ID)
	s.Require().Len(alerts, 1)
	s.Equal(models.SeverityMedium, alerts[0].Severity)
}

func (s *ServicesSuite) TestDetectScam_FlaggedOnlyWarns() {
	s.wire(s.mem, fixedScorer{score: 0})
	user := s.newUser(false)
	_, err := s.phones.Flag(s.ctx, "+15551112222", "reported", 10)
	s.Require().NoError(err)

	resp, err := s.detection.DetectScam(s.ctx, user.ID, "+15551112222", "")
	s.Require().NoError(err)

	s.True(resp.AlertCreated)
	s.Equal(RecommendWarning, resp.Recommendation)
	alerts := s.alertsFor(user.ID)
	s.Require().Len(alerts, 1)
	s.Equal(models.SeverityLow, alerts[0].Severity)
}

func (s *ServicesSuite) TestDetectScam_FansOutToNotifiableLinksOnly() {
	elderly := s.newUser(true)
	son := s.newUser(false)
	daughter := s.newUser(false)

	_, err := s.family.Link(s.ctx, elderly.ID, son.ID, LinkDetails{Name: "Son"})
	s.Require().NoError(err)
	_, err = s.family.Link(s.ctx, elderly.ID, daughter.ID, LinkDetails{Name: "Daughter"})
	s.Require().NoError(err)
	_, err = s.family.SetNotify(s.ctx, elderly.ID, daughter.ID, false)
	s.Require().NoError(err)

	resp, err := s.detection.DetectScam(s.ctx, elderly.ID, "+18005551234", "urgent: verify your account")
	s.Require().NoError(err)
	s.True(resp.AlertCreated)

	sonAlerts := s.alertsFor(son.ID)
	s.Require().Len(sonAlerts, 1)
	s.NotNil(sonAlerts[0].FamilyMemberID)
	s.Equal(resp.DetectionResultID, sonAlerts[0].DetectionResultID)
	s.Contains(sonAlerts[0].Message, "On behalf of")
	s.Empty(s.alertsFor(daughter.ID))

	s.Len(s.published.Events(), 2)
}

func (s *ServicesSuite) TestFanOutFailureKeepsPrimaryAlert() {
	elderly := s.newUser(true)
	son := s.newUser(false)
	_, err := s.family.Link(s.ctx, elderly.ID, son.ID, LinkDetails{Name: "Son"})
	s.Require().NoError(err)

	s.wire(faultyStore{Store: s.mem, family: brokenFamily{s.mem.Family()}}, scoring.NewHeuristic(config.DefaultScoring()))

	resp, err := s.detection.DetectScam(s.ctx, elderly.ID, "+18005551234", "your account is suspended")
	s.Require().NoError(err)
	s.True(resp.AlertCreated)

	s.Len(s.alertsFor(elderly.ID), 1)
	s.Empty(s.alertsFor(son.ID))
}

func (s *ServicesSuite) TestDetectScam_StoreFailureMarksScanFailed() {
	s.wire(faultyStore{Store: s.mem, scans: brokenScans{s.mem.Scans()}}, scoring.NewHeuristic(config.DefaultScoring()))
	user := s.newUser(false)

	_, err := s.detection.DetectScam(s.ctx, user.ID, "+18005551234", "verify your account")
	s.Require().ErrorIs(err, ErrStore)
	s.ErrorIs(err, errConnReset)

	scans, err := s.mem.Scans().ListRequests(s.ctx, user.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(scans, 1)
	s.Equal(models.ScanFailed, scans[0].Status)
	s.Empty(s.alertsFor(user.ID))
	s.Empty(s.published.Events())
}

func (s *ServicesSuite) TestDetectScam_LostFirstSightingRaceNeverDowngrades() {
	_, err := s.mem.Phones().EscalateFlag(s.ctx, &models.PhoneNumber{Number: "+18005551234", FlagReason: "earlier scan", RiskScore: 90}, time.Now())
	s.Require().NoError(err)
	s.wire(faultyStore{Store: s.mem, phones: lateLookup{s.mem.Phones()}}, scoring.NewHeuristic(config.DefaultScoring()))
	user := s.newUser(false)

	resp, err := s.detection.DetectScam(s.ctx, user.ID, "+18005551234", "verify your account")
	s.Require().NoError(err)
	s.Equal(60, resp.Analysis.RiskScore)
	s.Equal(90, resp.PhoneCheck.RiskScore)

	phone, err := s.mem.Phones().FindByNumber(s.ctx, "+18005551234")
	s.Require().NoError(err)
	s.True(phone.IsFlagged)
	s.Equal(90, phone.RiskScore)
	s.Equal("earlier scan", phone.FlagReason)
}

func (s *ServicesSuite) TestAlertTransitions() {
	owner := s.newUser(false)
	stranger := s.newUser(false)
	alert, err := s.alerts.CreateScamAlert(s.ctx, owner.ID, "+15550009999", 85, uuid.New(), "")
	s.Require().NoError(err)
	s.Equal(models.SeverityCritical, alert.Severity)
	s.Contains(alert.Message, "+15550009999")

	s.Run("mark read is idempotent", func() {
		first, err := s.alerts.MarkRead(s.ctx, alert.ID, owner.ID)
		s.Require().NoError(err)
		second, err := s.alerts.MarkRead(s.ctx, alert.ID, owner.ID)
		s.Require().NoError(err)
		s.Equal(first, second)
	})

	s.Run("acknowledge is idempotent", func() {
		first, err := s.alerts.Acknowledge(s.ctx, alert.ID, owner.ID)
		s.Require().NoError(err)
		second, err := s.alerts.Acknowledge(s.ctx, alert.ID, owner.ID)
		s.Require().NoError(err)
		s.Equal(first, second)
		s.Equal(owner.ID, *second.AcknowledgedBy)
	})

	s.Run("critical shortcut skips acknowledged alerts", func() {
		critical, err := s.alerts.Critical(s.ctx, owner.ID)
		s.Require().NoError(err)
		s.Empty(critical)
	})

	s.Run("other users get not found", func() {
		_, err := s.alerts.MarkRead(s.ctx, alert.ID, stranger.ID)
		s.ErrorIs(err, ErrAlertNotFound)
		_, err = s.alerts.Acknowledge(s.ctx, alert.ID, stranger.ID)
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("unknown severity is rejected", func() {
		_, err := s.alerts.BySeverity(s.ctx, owner.ID, "extreme")
		s.ErrorIs(err, ErrValidation)
	})

	s.Run("delete reports whether anything was removed", func() {
		deleted, err := s.alerts.Delete(s.ctx, alert.ID, owner.ID)
		s.Require().NoError(err)
		s.True(deleted)
		deleted, err = s.alerts.Delete(s.ctx, alert.ID, owner.ID)
		s.Require().NoError(err)
		s.False(deleted)
	})
}

func (s *ServicesSuite) TestSeverityFor() {
	cases := map[int]models.Severity{
		0: models.SeverityLow, 39: models.SeverityLow,
		40: models.SeverityMedium, 59: models.SeverityMedium,
		60: models.SeverityHigh, 79: models.SeverityHigh,
		80: models.SeverityCritical, 100: models.SeverityCritical,
	}
	for score, want := range cases {
		s.Equal(want, s.alerts.SeverityFor(score), "score %d", score)
	}
}

func (s *ServicesSuite) TestFamilyLinks() {
	elderly := s.newUser(true)
	son := s.newUser(false)

	s.Run("primary must be elderly", func() {
		_, err := s.family.Link(s.ctx, son.ID, elderly.ID, LinkDetails{Name: "x"})
		s.ErrorIs(err, ErrNotElderly)
		s.ErrorIs(err, ErrValidation)
	})

	s.Run("missing account is a validation error", func() {
		_, err := s.family.Link(s.ctx, elderly.ID, uuid.New(), LinkDetails{Name: "x"})
		s.ErrorIs(err, ErrValidation)
	})

	s.Run("second link of the same pair conflicts", func() {
		link, err := s.family.Link(s.ctx, elderly.ID, son.ID, LinkDetails{Name: "Son"})
		s.Require().NoError(err)
		s.True(link.NotifyOnAlert)

		_, err = s.family.Link(s.ctx, elderly.ID, son.ID, LinkDetails{Name: "Son"})
		s.ErrorIs(err, ErrFamilyLinkExists)
		s.ErrorIs(err, ErrConflict)
	})

	s.Run("status and unlink", func() {
		st, err := s.family.Status(s.ctx, elderly.ID, son.ID)
		s.Require().NoError(err)
		s.True(st.Linked)
		s.True(*st.NotifyOnAlert)

		s.Require().NoError(s.family.Unlink(s.ctx, elderly.ID, son.ID))
		st, err = s.family.Status(s.ctx, elderly.ID, son.ID)
		s.Require().NoError(err)
		s.False(st.Linked)

		s.ErrorIs(s.family.Unlink(s.ctx, elderly.ID, son.ID), ErrFamilyLinkNotFound)
	})
}

func (s *ServicesSuite) TestReportPhone_CreatesUnflaggedRecord() {
	user := s.newUser(false)

	report, err := s.reports.ReportPhone(s.ctx, user.ID, dto.ReportPhoneRequest{PhoneNumber: "+1 555 444 3333", Reason: "pretended to be my bank"})
	s.Require().NoError(err)
	s.Equal("pending", report.Status)
	s.Equal("medium", report.Priority)

	phone, err := s.mem.Phones().FindByNumber(s.ctx, "+15554443333")
	s.Require().NoError(err)
	s.False(phone.IsFlagged)
	s.Equal(50, phone.RiskScore)
	s.Require().NotNil(phone.Origin)
	s.Equal("user_report", *phone.Origin)
	s.Equal(phone.ID, *report.ReportedPhoneID)

	again, err := s.reports.ReportPhone(s.ctx, user.ID, dto.ReportPhoneRequest{PhoneNumber: "+15554443333", Reason: "again", Priority: "high"})
	s.Require().NoError(err)
	s.Equal(phone.ID, *again.ReportedPhoneID)

	reports, err := s.reports.ListReports(s.ctx, user.ID, 0, 0)
	s.Require().NoError(err)
	s.Len(reports, 2)
}

func (s *ServicesSuite) TestReportSMS() {
	user := s.newUser(false)

	report, err := s.reports.ReportSMS(s.ctx, user.ID, dto.ReportSMSRequest{
		SenderPhone: "+1 555 222 1111",
		Reason:      "fake parcel delivery link",
		MessageBody: "Your parcel is on hold, pay the fee at http://example.test",
	})
	s.Require().NoError(err)
	s.Equal(models.ReportSMS, report.ReportType)
	s.Equal(models.ReportPending, report.Status)
	s.Equal("medium", report.Priority)
	s.NotNil(report.ReportedSMSID)

	phone, err := s.mem.Phones().FindByNumber(s.ctx, "+15552221111")
	s.Require().NoError(err)
	s.False(phone.IsFlagged)
	s.Equal(50, phone.RiskScore)
	s.Require().NotNil(phone.Origin)
	s.Equal("sms_report", *phone.Origin)
	s.Equal(phone.ID, *report.ReportedPhoneID)

	s.Run("without a body no message is linked", func() {
		bare, err := s.reports.ReportSMS(s.ctx, user.ID, dto.ReportSMSRequest{SenderPhone: "+15552221111", Reason: "again"})
		s.Require().NoError(err)
		s.Nil(bare.ReportedSMSID)
		s.Equal(phone.ID, *bare.ReportedPhoneID)
	})

	s.Run("an existing record keeps its origin and score", func() {
		_, err := s.phones.Flag(s.ctx, "+15559990000", "robocall", 90)
		s.Require().NoError(err)
		_, err = s.reports.ReportSMS(s.ctx, user.ID, dto.ReportSMSRequest{SenderPhone: "+15559990000", Reason: "spam"})
		s.Require().NoError(err)

		existing, err := s.mem.Phones().FindByNumber(s.ctx, "+15559990000")
		s.Require().NoError(err)
		s.True(existing.IsFlagged)
		s.Equal(90, existing.RiskScore)
		s.Nil(existing.Origin)
	})
}

func (s *ServicesSuite) TestReportReview() {
	user := s.newUser(false)
	phoneReport, err := s.reports.ReportPhone(s.ctx, user.ID, dto.ReportPhoneRequest{PhoneNumber: "+15554443333", Reason: "bank impersonation"})
	s.Require().NoError(err)
	_, err = s.reports.ReportSMS(s.ctx, user.ID, dto.ReportSMSRequest{SenderPhone: "+15552221111", Reason: "phishing link"})
	s.Require().NoError(err)

	s.Run("list by type", func() {
		sms, err := s.reports.ListByType(s.ctx, models.ReportSMS, 0, 0)
		s.Require().NoError(err)
		s.Len(sms, 1)

		_, err = s.reports.ListByType(s.ctx, "carrier-pigeon", 0, 0)
		s.ErrorIs(err, ErrInvalidReport)
		s.ErrorIs(err, ErrValidation)
	})

	s.Run("reviewing keeps resolved_at empty", func() {
		got, err := s.reports.UpdateStatus(s.ctx, phoneReport.ID, dto.UpdateReportStatusRequest{Status: models.ReportReviewed, AdminNotes: "checking carrier"})
		s.Require().NoError(err)
		s.Equal(models.ReportReviewed, got.Status)
		s.Equal("checking carrier", got.AdminNotes)
		s.Nil(got.ResolvedAt)
	})

	s.Run("resolving stamps resolved_at and keeps notes", func() {
		got, err := s.reports.UpdateStatus(s.ctx, phoneReport.ID, dto.UpdateReportStatusRequest{Status: models.ReportResolved})
		s.Require().NoError(err)
		s.Equal(models.ReportResolved, got.Status)
		s.Equal("checking carrier", got.AdminNotes)
		s.NotNil(got.ResolvedAt)

		fetched, err := s.reports.GetReport(s.ctx, phoneReport.ID)
		s.Require().NoError(err)
		s.Equal(models.ReportResolved, fetched.Status)
	})

	s.Run("unknown report", func() {
		_, err := s.reports.UpdateStatus(s.ctx, uuid.New(), dto.UpdateReportStatusRequest{Status: models.ReportDismissed})
		s.ErrorIs(err, ErrReportNotFound)
		_, err = s.reports.GetReport(s.ctx, uuid.New())
		s.ErrorIs(err, ErrReportNotFound)
	})
}

func (s *ServicesSuite) TestMarkAllRead_OnlyTouchesOwnUnreadAlerts() {
	owner := s.newUser(false)
	stranger := s.newUser(false)
	var first *models.Alert
	for i := range 3 {
		alert, err := s.alerts.CreateScamAlert(s.ctx, owner.ID, "+15550009999", 50+i, uuid.New(), "")
		s.Require().NoError(err)
		if first == nil {
			first = alert
		}
	}
	_, err := s.alerts.CreateScamAlert(s.ctx, stranger.ID, "+15550009999", 50, uuid.New(), "")
	s.Require().NoError(err)
	_, err = s.alerts.MarkRead(s.ctx, first.ID, owner.ID)
	s.Require().NoError(err)

	n, err := s.alerts.MarkAllRead(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.EqualValues(2, n)

	unread, err := s.alerts.UnreadCount(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Zero(unread)
	unread, err = s.alerts.UnreadCount(s.ctx, stranger.ID)
	s.Require().NoError(err)
	s.EqualValues(1, unread)

	n, err = s.alerts.MarkAllRead(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *ServicesSuite) TestRiskAssessmentAndStats() {
	user := s.newUser(false)
	_, err := s.phones.Flag(s.ctx, "+15559998888", "known scam", 90)
	s.Require().NoError(err)

	ra, err := s.detection.RiskAssessment(s.ctx, "+15559998888", "")
	s.Require().NoError(err)
	s.Equal(90, ra.OverallRiskScore)
	s.Equal("CRITICAL", ra.RiskLevel)
	s.Equal(RecommendWarning, ra.Recommendation)

	bulk := s.detection.BulkDetect(s.ctx, user.ID, []string{"+15559998888", "no digits", "+12345678901"})
	s.Equal(3, bulk.Checked)
	s.Equal(1, bulk.Failed)
	s.NotEmpty(bulk.Results[1].Error)

	history, err := s.detection.History(s.ctx, user.ID, 10)
	s.Require().NoError(err)
	s.Equal(int64(2), history.ScanRequests)
	s.Equal(int64(2), history.DetectionResults)
	s.Equal(int64(1), history.Alerts)
	s.Len(history.RecentScans, 2)

	stats, err := s.detection.Stats(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), stats.CriticalAlerts)
	s.InDelta(0.5, stats.AlertRate, 0.001)
}
