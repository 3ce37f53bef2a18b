package suspension_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"confide/internal/suspension"
	"confide/internal/suspension/store"
	dErrors "confide/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.MemoryStore
	service *suspension.Service
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.now = time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

	var err error
	s.service, err = suspension.New(s.store, suspension.WithClock(func() time.Time {
		return s.now
	}))
	s.Require().NoError(err)
}

func (s *ServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *ServiceSuite) suspend(params suspension.SuspendParams) *suspension.SuspendedIdentity {
	record, err := s.service.Suspend(context.Background(), params)
	s.Require().NoError(err)
	return record
}

func (s *ServiceSuite) TestNew() {
	_, err := suspension.New(nil)
	s.Error(err)
}

func (s *ServiceSuite) TestIsBanned() {
	ctx := context.Background()

	s.Run("empty hash is never banned", func() {
		banned, err := s.service.IsBanned(ctx, "")
		s.NoError(err)
		s.False(banned)
	})

	s.Run("unknown hash is not banned", func() {
		banned, err := s.service.IsBanned(ctx, "deadbeef")
		s.NoError(err)
		s.False(banned)
	})

	s.Run("lifetime ban is active indefinitely", func() {
		s.suspend(suspension.SuspendParams{
			IdentityHash:      "hash-lifetime",
			IdentityEncrypted: "ct",
			Duration:          suspension.DurationLifetime,
		})

		banned, err := s.service.IsBanned(ctx, "hash-lifetime")
		s.NoError(err)
		s.True(banned)

		s.now = s.now.AddDate(100, 0, 0)
		banned, err = s.service.IsBanned(ctx, "hash-lifetime")
		s.NoError(err)
		s.True(banned)
	})

	s.Run("future expiry is active", func() {
		record := s.suspend(suspension.SuspendParams{
			IdentityHash:      "hash-future",
			IdentityEncrypted: "ct",
			Duration:          suspension.DurationOneMonth,
		})
		s.Require().NotNil(record.SuspendedUntil)

		banned, err := s.service.IsBanned(ctx, "hash-future")
		s.NoError(err)
		s.True(banned)
	})

	s.Run("expired ban is inactive but the row survives", func() {
		s.suspend(suspension.SuspendParams{
			IdentityHash:      "hash-expired",
			IdentityEncrypted: "ct",
			Duration:          suspension.DurationOneMonth,
		})

		s.now = s.now.AddDate(0, 2, 0)
		banned, err := s.service.IsBanned(ctx, "hash-expired")
		s.NoError(err)
		s.False(banned)

		record, err := s.store.FindByHash(ctx, "hash-expired")
		s.NoError(err)
		s.NotNil(record, "expired ban must stay as a historical row")
	})

	s.Run("ban expiring one second ago is inactive", func() {
		until := s.now.Add(-time.Second)
		_, err := s.store.Upsert(ctx, &suspension.SuspendedIdentity{
			IdentityHash:      "hash-second",
			IdentityEncrypted: "ct",
			SuspendedUntil:    &until,
		})
		s.Require().NoError(err)

		banned, err := s.service.IsBanned(ctx, "hash-second")
		s.NoError(err)
		s.False(banned)
	})

	s.Run("ban expiring in one hour is active", func() {
		until := s.now.Add(time.Hour)
		_, err := s.store.Upsert(ctx, &suspension.SuspendedIdentity{
			IdentityHash:      "hash-hour",
			IdentityEncrypted: "ct",
			SuspendedUntil:    &until,
		})
		s.Require().NoError(err)

		banned, err := s.service.IsBanned(ctx, "hash-hour")
		s.NoError(err)
		s.True(banned)
	})
}

func (s *ServiceSuite) TestSuspend() {
	ctx := context.Background()

	s.Run("missing identity is a distinct unprocessable error", func() {
		_, err := s.service.Suspend(ctx, suspension.SuspendParams{
			Duration: suspension.DurationLifetime,
		})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnprocessable))

		records, listErr := s.store.List(ctx)
		s.NoError(listErr)
		s.Empty(records, "no row may be created without an identity")
	})

	s.Run("invalid duration rejected before persistence", func() {
		_, err := s.service.Suspend(ctx, suspension.SuspendParams{
			IdentityHash:      "h",
			IdentityEncrypted: "ct",
			Duration:          suspension.DurationSpec("2w"),
		})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("custom months out of range rejected", func() {
		for _, months := range []int{0, 61, -5} {
			_, err := s.service.Suspend(ctx, suspension.SuspendParams{
				IdentityHash:      "h",
				IdentityEncrypted: "ct",
				Duration:          suspension.DurationCustom,
				CustomMonths:      months,
			})
			s.Require().Error(err)
			s.True(dErrors.Is(err, dErrors.CodeBadRequest))
		}
	})

	s.Run("six month duration lands six calendar months out", func() {
		record := s.suspend(suspension.SuspendParams{
			IdentityHash:      "hash-6m",
			IdentityEncrypted: "ct",
			Duration:          suspension.DurationSixMonths,
		})
		s.Require().NotNil(record.SuspendedUntil)
		// Aug 31 + 6 months clamps to Feb 28 (2027 is not a leap year).
		s.Equal(time.Date(2027, time.February, 28, 12, 0, 0, 0, time.UTC), *record.SuspendedUntil)
	})

	s.Run("custom months honored", func() {
		record := s.suspend(suspension.SuspendParams{
			IdentityHash:      "hash-custom",
			IdentityEncrypted: "ct",
			Duration:          suspension.DurationCustom,
			CustomMonths:      3,
		})
		s.Require().NotNil(record.SuspendedUntil)
		s.Equal(time.Date(2026, time.November, 30, 12, 0, 0, 0, time.UTC), *record.SuspendedUntil)
	})

	s.Run("re-suspending replaces instead of duplicating", func() {
		first := s.suspend(suspension.SuspendParams{
			IdentityHash:      "hash-upsert",
			IdentityEncrypted: "ct",
			Duration:          suspension.DurationOneMonth,
			Reason:            "first offense",
		})
		second := s.suspend(suspension.SuspendParams{
			IdentityHash:      "hash-upsert",
			IdentityEncrypted: "ct",
			Duration:          suspension.DurationLifetime,
			Reason:            "repeat offense",
		})

		s.Equal(first.ID, second.ID)
		s.Nil(second.SuspendedUntil)
		s.Equal("repeat offense", second.Reason)

		records, err := s.store.List(ctx)
		s.NoError(err)
		s.Len(records, 1)
	})
}
