package service

import (
	"context"
	"testing"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository"
	"parking_reservation/internal/repository/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParkingService(t *testing.T) (*ParkingService, *memory.LocationRepository, *memory.ParkingSlotRepository) {
	t.Helper()
	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.Disabled)
	slots := memory.NewParkingSlotRepository()
	locations := memory.NewLocationRepository(slots)
	slots.AttachLocations(locations)
	return NewParkingService(locations, slots, nil, &logger), locations, slots
}

func TestLocationCRUD(t *testing.T) {
	svc, _, _ := newParkingService(t)
	ctx := context.Background()

	created, err := svc.CreateLocation(ctx, domain.LocationDTO{Name: "Bãi Quận 1", Address: "1 Lê Lợi"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	t.Run("FindByID", func(t *testing.T) {
		found, err := svc.GetLocationByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bãi Quận 1", found.Name)

		_, err = svc.GetLocationByID(ctx, "không-tồn-tại")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		updated, err := svc.UpdateLocation(ctx, created.ID, domain.LocationDTO{Name: "Bãi Quận 3", Address: "2 Võ Văn Tần"})
		require.NoError(t, err)
		assert.Equal(t, "Bãi Quận 3", updated.Name)
		assert.Equal(t, "2 Võ Văn Tần", updated.Address)
	})

	t.Run("ListIncludesSlots", func(t *testing.T) {
		_, err := svc.CreateSlot(ctx, domain.ParkingSlotDTO{LocationID: created.ID, Identifier: "A1"})
		require.NoError(t, err)

		all, err := svc.GetAllLocations(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Len(t, all[0].Slots, 1)
		assert.Equal(t, "A1", all[0].Slots[0].Identifier)
	})

	t.Run("DeleteGuardedBySlots", func(t *testing.T) {
		err := svc.DeleteLocation(ctx, created.ID)
		require.ErrorIs(t, err, ErrLocationHasSlots)

		slots, err := svc.GetSlotsByLocation(ctx, created.ID)
		require.NoError(t, err)
		for _, slot := range slots {
			require.NoError(t, svc.DeleteSlot(ctx, slot.ID))
		}
		require.NoError(t, svc.DeleteLocation(ctx, created.ID))

		_, err = svc.GetLocationByID(ctx, created.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestCreateSlot(t *testing.T) {
	svc, _, _ := newParkingService(t)
	ctx := context.Background()

	location, err := svc.CreateLocation(ctx, domain.LocationDTO{Name: "Bãi Quận 1", Address: "1 Lê Lợi"})
	require.NoError(t, err)

	t.Run("DefaultStatusAvailable", func(t *testing.T) {
		slot, err := svc.CreateSlot(ctx, domain.ParkingSlotDTO{LocationID: location.ID, Identifier: "A1"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAvailable, slot.Status)
	})

	t.Run("DuplicateIdentifierSameLocation", func(t *testing.T) {
		_, err := svc.CreateSlot(ctx, domain.ParkingSlotDTO{LocationID: location.ID, Identifier: "A1"})
		assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
	})

	t.Run("SameIdentifierOtherLocation", func(t *testing.T) {
		other, err := svc.CreateLocation(ctx, domain.LocationDTO{Name: "Bãi Quận 7", Address: "9 Nguyễn Văn Linh"})
		require.NoError(t, err)
		slot, err := svc.CreateSlot(ctx, domain.ParkingSlotDTO{LocationID: other.ID, Identifier: "A1"})
		require.NoError(t, err)
		assert.Equal(t, other.ID, slot.LocationID)
	})

	t.Run("UnknownLocation", func(t *testing.T) {
		_, err := svc.CreateSlot(ctx, domain.ParkingSlotDTO{LocationID: "không-tồn-tại", Identifier: "B1"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		_, err := svc.CreateSlot(ctx, domain.ParkingSlotDTO{LocationID: location.ID, Identifier: "B1", Status: "FULL"})
		assert.ErrorIs(t, err, ErrInvalidSlotStatus)
	})
}

func TestUpdateSlot(t *testing.T) {
	svc, _, _ := newParkingService(t)
	ctx := context.Background()

	location, err := svc.CreateLocation(ctx, domain.LocationDTO{Name: "Bãi Quận 1", Address: "1 Lê Lợi"})
	require.NoError(t, err)
	slot, err := svc.CreateSlot(ctx, domain.ParkingSlotDTO{LocationID: location.ID, Identifier: "A1"})
	require.NoError(t, err)

	t.Run("PartialStatusUpdate", func(t *testing.T) {
		updated, err := svc.UpdateSlot(ctx, slot.ID, domain.ParkingSlotDTO{Status: string(domain.StatusUnavailable)})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusUnavailable, updated.Status)
		assert.Equal(t, "A1", updated.Identifier)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		_, err := svc.UpdateSlot(ctx, slot.ID, domain.ParkingSlotDTO{Status: "ĐẦY"})
		assert.ErrorIs(t, err, ErrInvalidSlotStatus)
	})

	t.Run("MoveToUnknownLocation", func(t *testing.T) {
		_, err := svc.UpdateSlot(ctx, slot.ID, domain.ParkingSlotDTO{LocationID: "không-tồn-tại"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := svc.UpdateSlot(ctx, "không-tồn-tại", domain.ParkingSlotDTO{Identifier: "Z9"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
