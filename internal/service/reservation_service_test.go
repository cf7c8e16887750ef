package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
	"parking_reservation/internal/repository/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	block chan struct{}
}

func (m *fakeMailer) SendReservationConfirmation(toEmail, reservationID string) error {
	m.mu.Lock()
	m.sent = append(m.sent, reservationID)
	m.mu.Unlock()
	if m.block != nil {
		close(m.block)
	}
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type reservationFixture struct {
	svc    *ReservationService
	users  *memory.UserRepository
	slots  *memory.ParkingSlotRepository
	mailer *fakeMailer
	user   *domain.User
	slot   *domain.ParkingSlot
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()
	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.Disabled)

	users := memory.NewUserRepository()
	slots := memory.NewParkingSlotRepository()
	locations := memory.NewLocationRepository(slots)
	slots.AttachLocations(locations)
	reservations := memory.NewReservationRepository(users, slots)

	ctx := context.Background()
	user, err := users.Create(ctx, &domain.User{Name: "Nguyen Van A", Email: "a@example.com", Password: "hash", Role: domain.RoleUser})
	require.NoError(t, err)
	location, err := locations.Create(ctx, &domain.Location{Name: "Bãi Quận 1", Address: "1 Lê Lợi"})
	require.NoError(t, err)
	slot, err := slots.Create(ctx, &domain.ParkingSlot{LocationID: location.ID, Identifier: "A1", Status: domain.StatusAvailable})
	require.NoError(t, err)

	mailer := &fakeMailer{}
	svc := NewReservationService(reservations, slots, users, mailer, nil, &logger)
	return &reservationFixture{svc: svc, users: users, slots: slots, mailer: mailer, user: user, slot: slot}
}

func rfc3339In(d time.Duration) string {
	return time.Now().Add(d).UTC().Format(time.RFC3339)
}

func TestAdmitReservationValidation(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	t.Run("MissingFields", func(t *testing.T) {
		_, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: "", EndTime: rfc3339In(2 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrMissingFields)

		_, err = f.svc.AdmitReservation(ctx, "", domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: rfc3339In(time.Hour), EndTime: rfc3339In(2 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrMissingFields)
	})

	t.Run("InvalidTime", func(t *testing.T) {
		_, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: "hôm-qua", EndTime: rfc3339In(2 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrInvalidTime)
	})

	t.Run("PastStartTime", func(t *testing.T) {
		_, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: rfc3339In(-time.Hour), EndTime: rfc3339In(2 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrPastStartTime)
	})

	t.Run("StartEqualsEnd", func(t *testing.T) {
		start := rfc3339In(time.Hour)
		_, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: start, EndTime: start,
		})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("StartAfterEnd", func(t *testing.T) {
		_, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: rfc3339In(2 * time.Hour), EndTime: rfc3339In(time.Hour),
		})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("SlotNotFound", func(t *testing.T) {
		_, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: "không-tồn-tại", StartTime: rfc3339In(time.Hour), EndTime: rfc3339In(2 * time.Hour),
		})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	// Không request nào được nhận nên không có mail xác nhận nào được gửi
	assert.Zero(t, f.mailer.sentCount())
}

func TestAdmitReservationSlotStatus(t *testing.T) {
	ctx := context.Background()
	for _, status := range []domain.SlotStatus{domain.StatusUnavailable, domain.StatusLimitedTime} {
		t.Run(string(status), func(t *testing.T) {
			f := newReservationFixture(t)
			f.slot.Status = status
			_, err := f.slots.Update(ctx, f.slot)
			require.NoError(t, err)

			_, err = f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
				SlotID: f.slot.ID, StartTime: rfc3339In(time.Hour), EndTime: rfc3339In(2 * time.Hour),
			})
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		})
	}
}

func TestAdmitReservationOverlap(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour).UTC()
	at := func(h int) string { return base.Add(time.Duration(h) * time.Hour).Format(time.RFC3339) }

	first, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
		SlotID: f.slot.ID, StartTime: at(0), EndTime: at(1),
	})
	require.NoError(t, err)
	require.False(t, first.Canceled)

	t.Run("OverlappingRejected", func(t *testing.T) {
		cases := []struct{ start, end int }{
			{0, 1}, // trùng hoàn toàn
		}
		for _, tc := range cases {
			_, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
				SlotID: f.slot.ID, StartTime: at(tc.start), EndTime: at(tc.end),
			})
			assert.ErrorIs(t, err, ErrTimeSlotBooked)
		}
		// giao một phần: [0h30, 1h30)
		_, err = f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID:    f.slot.ID,
			StartTime: base.Add(30 * time.Minute).Format(time.RFC3339),
			EndTime:   base.Add(90 * time.Minute).Format(time.RFC3339),
		})
		assert.ErrorIs(t, err, ErrTimeSlotBooked)
		// bao trùm toàn bộ: [-1h, 2h)
		_, err = f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: at(-1), EndTime: at(2),
		})
		assert.ErrorIs(t, err, ErrTimeSlotBooked)
	})

	t.Run("TouchingEndpointsAdmitted", func(t *testing.T) {
		// [1h, 2h) kề ngay sau [0h, 1h): không trùng
		after, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: at(1), EndTime: at(2),
		})
		require.NoError(t, err)
		assert.Equal(t, f.slot.ID, after.SlotID)

		// [-1h, 0h) kề ngay trước
		_, err = f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: at(-1), EndTime: at(0),
		})
		require.NoError(t, err)
	})

	t.Run("CanceledExcludedFromOverlapCheck", func(t *testing.T) {
		canceled, err := f.svc.CancelReservation(ctx, f.user.ID, first.ID)
		require.NoError(t, err)
		require.True(t, canceled.Canceled)

		// Khoảng [0h, 1h) giờ trống trở lại
		again, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
			SlotID: f.slot.ID, StartTime: at(0), EndTime: at(1),
		})
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, again.ID)
	})
}

func TestAdmitReservationConcurrentRace(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	start := rfc3339In(24 * time.Hour)
	end := rfc3339In(26 * time.Hour)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
				SlotID: f.slot.ID, StartTime: start, EndTime: end,
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	// Đúng một request thắng, các request còn lại nhận conflict
	successes, conflicts := 0, 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrTimeSlotBooked)
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, numGoroutines-1, conflicts)
}

func TestAdmitReservationConfirmationMail(t *testing.T) {
	f := newReservationFixture(t)
	f.mailer.block = make(chan struct{})
	ctx := context.Background()

	created, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
		SlotID: f.slot.ID, StartTime: rfc3339In(time.Hour), EndTime: rfc3339In(2 * time.Hour),
	})
	require.NoError(t, err)

	select {
	case <-f.mailer.block:
	case <-time.After(2 * time.Second):
		t.Fatal("mail xác nhận không được gửi")
	}
	assert.Equal(t, 1, f.mailer.sentCount())
	assert.Equal(t, []string{created.ID}, f.mailer.sent)
}

func TestCancelReservation(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	other, err := f.users.Create(ctx, &domain.User{Name: "Tran Thi B", Email: "b@example.com", Password: "hash", Role: domain.RoleUser})
	require.NoError(t, err)

	created, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
		SlotID: f.slot.ID, StartTime: rfc3339In(time.Hour), EndTime: rfc3339In(2 * time.Hour),
	})
	require.NoError(t, err)

	t.Run("NotFound", func(t *testing.T) {
		_, err := f.svc.CancelReservation(ctx, f.user.ID, "không-tồn-tại")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("NonOwnerForbidden", func(t *testing.T) {
		_, err := f.svc.CancelReservation(ctx, other.ID, created.ID)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("OwnerSucceeds", func(t *testing.T) {
		canceled, err := f.svc.CancelReservation(ctx, f.user.ID, created.ID)
		require.NoError(t, err)
		assert.True(t, canceled.Canceled)
		assert.True(t, canceled.CanceledAt.Valid)
	})

	t.Run("RecancelIdempotent", func(t *testing.T) {
		first, err := f.svc.CancelReservation(ctx, f.user.ID, created.ID)
		require.NoError(t, err)
		firstCanceledAt := first.CanceledAt.Time

		again, err := f.svc.CancelReservation(ctx, f.user.ID, created.ID)
		require.NoError(t, err)
		assert.True(t, again.Canceled)
		assert.Equal(t, firstCanceledAt, again.CanceledAt.Time)
	})

	t.Run("SlotStatusUntouched", func(t *testing.T) {
		slot, err := f.slots.FindByID(ctx, f.slot.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAvailable, slot.Status)
	})
}

func TestListReservations(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	other, err := f.users.Create(ctx, &domain.User{Name: "Tran Thi B", Email: "b@example.com", Password: "hash", Role: domain.RoleUser})
	require.NoError(t, err)

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour).UTC()
	at := func(h int) string { return base.Add(time.Duration(h) * time.Hour).Format(time.RFC3339) }

	// Tạo theo thứ tự: khoảng muộn trước, khoảng sớm sau
	late, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
		SlotID: f.slot.ID, StartTime: at(5), EndTime: at(6),
	})
	require.NoError(t, err)
	early, err := f.svc.AdmitReservation(ctx, f.user.ID, domain.CreateReservationDTO{
		SlotID: f.slot.ID, StartTime: at(1), EndTime: at(2),
	})
	require.NoError(t, err)
	_, err = f.svc.AdmitReservation(ctx, other.ID, domain.CreateReservationDTO{
		SlotID: f.slot.ID, StartTime: at(3), EndTime: at(4),
	})
	require.NoError(t, err)

	t.Run("AllWithDetails", func(t *testing.T) {
		all, err := f.svc.GetAllReservations(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for _, rsv := range all {
			assert.NotNil(t, rsv.User)
			require.NotNil(t, rsv.Slot)
			assert.NotNil(t, rsv.Slot.Location)
			assert.Empty(t, rsv.User.Password)
		}
		// Mới tạo trước
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i-1].CreatedAt.Before(all[i].CreatedAt))
		}
	})

	t.Run("MineAscendingByStartTime", func(t *testing.T) {
		mine, err := f.svc.GetMyReservations(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, early.ID, mine[0].ID)
		assert.Equal(t, late.ID, mine[1].ID)
		for _, rsv := range mine {
			require.NotNil(t, rsv.Slot)
			assert.NotNil(t, rsv.Slot.Location)
		}
	})

	t.Run("SlotSchedule", func(t *testing.T) {
		schedule, err := f.svc.GetSlotSchedule(ctx, f.slot.ID)
		require.NoError(t, err)
		assert.Len(t, schedule, 3)

		_, err = f.svc.GetSlotSchedule(ctx, "không-tồn-tại")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
