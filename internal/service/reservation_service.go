package service

import (
	"context"
	"errors"
	"fmt"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/metrics"
	"parking_reservation/internal/repository"
	"time"

	"github.com/rs/zerolog"
)

var ErrMissingFields = errors.New("thiếu slot_id, start_time hoặc end_time")
var ErrInvalidTime = errors.New("thời gian không hợp lệ")
var ErrPastStartTime = errors.New("không thể đặt chỗ trong quá khứ")
var ErrInvalidRange = errors.New("thời gian bắt đầu phải trước thời gian kết thúc")
var ErrSlotUnavailable = errors.New("chỗ đỗ hiện không khả dụng")
var ErrTimeSlotBooked = errors.New("khoảng thời gian này đã được đặt trước")
var ErrNotOwner = errors.New("không có quyền hủy đặt chỗ này")

// ReservationBroadcaster đẩy event đặt chỗ ra kênh real-time (WebSocket).
type ReservationBroadcaster interface {
	BroadcastReservationEvent(event domain.ReservationEventNotification)
}

// ReservationService là engine admission: quyết định nhận hay từ chối một
// yêu cầu đặt chỗ. Service không giữ state chia sẻ nào trong process; tính
// nguyên tử của bước kiểm-tra-rồi-ghi nằm trong ReservationRepository.
type ReservationService struct {
	reservationRepo repository.ReservationRepository
	slotRepo        repository.ParkingSlotRepository
	userRepo        repository.UserRepository
	mailer          Mailer
	broadcaster     ReservationBroadcaster
	logger          *zerolog.Logger

	// now được tách ra để test kiểm soát "thời điểm hiện tại"
	now func() time.Time
}

func NewReservationService(
	reservationRepo repository.ReservationRepository,
	slotRepo repository.ParkingSlotRepository,
	userRepo repository.UserRepository,
	mailer Mailer,
	broadcaster ReservationBroadcaster,
	logger *zerolog.Logger,
) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		userRepo:        userRepo,
		mailer:          mailer,
		broadcaster:     broadcaster,
		logger:          logger,
		now:             time.Now,
	}
}

// AdmitReservation validate yêu cầu theo thứ tự cố định, dừng ở lỗi đầu
// tiên: (1) đủ trường, (2) parse được thời gian, (3) start ở tương lai,
// (4) start < end, (5) slot tồn tại và AVAILABLE, (6)+(7) kiểm tra trùng
// khoảng và insert nguyên tử trong repository. Mail xác nhận và broadcast
// chạy sau commit, best-effort, không ảnh hưởng kết quả.
func (s *ReservationService) AdmitReservation(ctx context.Context, userID string, dto domain.CreateReservationDTO) (*domain.Reservation, error) {
	if userID == "" || dto.SlotID == "" || dto.StartTime == "" || dto.EndTime == "" {
		s.logger.Warn().Msg("tạo đặt chỗ thất bại: thiếu trường")
		metrics.IncAdmission("rejected_validation")
		return nil, ErrMissingFields
	}

	start, err := time.Parse(time.RFC3339, dto.StartTime)
	if err != nil {
		metrics.IncAdmission("rejected_validation")
		return nil, fmt.Errorf("%w: start_time '%s'", ErrInvalidTime, dto.StartTime)
	}
	end, err := time.Parse(time.RFC3339, dto.EndTime)
	if err != nil {
		metrics.IncAdmission("rejected_validation")
		return nil, fmt.Errorf("%w: end_time '%s'", ErrInvalidTime, dto.EndTime)
	}

	if !start.After(s.now()) {
		s.logger.Warn().Time("start", start).Msg("tạo đặt chỗ thất bại: thời gian bắt đầu trong quá khứ")
		metrics.IncAdmission("rejected_validation")
		return nil, ErrPastStartTime
	}
	if !start.Before(end) {
		s.logger.Warn().Time("start", start).Time("end", end).Msg("tạo đặt chỗ thất bại: khoảng thời gian không hợp lệ")
		metrics.IncAdmission("rejected_validation")
		return nil, ErrInvalidRange
	}

	slot, err := s.slotRepo.FindByID(ctx, dto.SlotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.IncAdmission("rejected_validation")
			return nil, err
		}
		return nil, fmt.Errorf("lỗi khi kiểm tra chỗ đỗ: %w", err)
	}
	// Status chỉ là cờ quản trị; gate thật sự là kiểm tra trùng khoảng
	// bên dưới. Slot AVAILABLE vẫn có thể đã kín lịch cho khoảng yêu cầu.
	if slot.Status != domain.StatusAvailable {
		s.logger.Warn().Str("slot_id", slot.ID).Str("status", string(slot.Status)).Msg("tạo đặt chỗ thất bại: chỗ đỗ không khả dụng")
		metrics.IncAdmission("rejected_conflict")
		return nil, ErrSlotUnavailable
	}

	reservation := &domain.Reservation{
		UserID:    userID,
		SlotID:    slot.ID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
	}
	created, err := s.reservationRepo.CreateIfFree(ctx, reservation)
	if err != nil {
		if errors.Is(err, repository.ErrTimeConflict) {
			s.logger.Warn().Str("slot_id", slot.ID).Msg("tạo đặt chỗ thất bại: khoảng thời gian đã được đặt")
			metrics.IncAdmission("rejected_conflict")
			return nil, ErrTimeSlotBooked
		}
		return nil, fmt.Errorf("lỗi khi tạo đặt chỗ: %w", err)
	}

	s.logger.Info().
		Str("reservation_id", created.ID).
		Str("user_id", userID).
		Str("slot", slot.Identifier).
		Msg("đã tạo đặt chỗ")
	metrics.IncAdmission("created")

	s.dispatchConfirmation(created)
	s.broadcast(domain.ReservationEventNotification{
		EventType:     domain.EventReservationCreated,
		ReservationID: created.ID,
		SlotID:        created.SlotID,
		StartTime:     &created.StartTime,
		EndTime:       &created.EndTime,
		Timestamp:     s.now().UTC(),
	})
	return created, nil
}

// dispatchConfirmation gửi mail xác nhận trên goroutine riêng: admission
// đã commit, lỗi gửi mail chỉ được log, không bao giờ rollback đặt chỗ.
func (s *ReservationService) dispatchConfirmation(reservation *domain.Reservation) {
	if s.mailer == nil {
		return
	}
	logger := s.logger.With().Str("reservation_id", reservation.ID).Logger()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		user, err := s.userRepo.FindByID(ctx, reservation.UserID)
		if err != nil {
			logger.Error().Err(err).Msg("không tìm thấy user để gửi mail xác nhận")
			return
		}
		if err := s.mailer.SendReservationConfirmation(user.Email, reservation.ID); err != nil {
			logger.Error().Err(err).Msg("gửi mail xác nhận thất bại")
		}
	}()
}

func (s *ReservationService) broadcast(event domain.ReservationEventNotification) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastReservationEvent(event)
}

// CancelReservation chỉ cho phép chính chủ hủy. Hủy một đặt chỗ đã hủy vẫn
// thành công (idempotent); bản ghi được giữ lại và không còn tham gia
// kiểm tra trùng khoảng.
func (s *ReservationService) CancelReservation(ctx context.Context, userID string, reservationID string) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != userID {
		s.logger.Warn().
			Str("reservation_id", reservationID).
			Str("user_id", userID).
			Msg("hủy đặt chỗ bị từ chối: không phải chủ sở hữu")
		return nil, ErrNotOwner
	}

	canceled, err := s.reservationRepo.Cancel(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi hủy đặt chỗ: %w", err)
	}
	s.logger.Info().Str("reservation_id", reservationID).Str("user_id", userID).Msg("đã hủy đặt chỗ")
	metrics.IncAdmission("canceled")

	s.broadcast(domain.ReservationEventNotification{
		EventType:     domain.EventReservationCanceled,
		ReservationID: canceled.ID,
		SlotID:        canceled.SlotID,
		Timestamp:     s.now().UTC(),
	})
	return canceled, nil
}

// GetAllReservations dành cho admin: mọi đặt chỗ, mới tạo trước, kèm user
// và slot -> location.
func (s *ReservationService) GetAllReservations(ctx context.Context) ([]domain.Reservation, error) {
	return s.reservationRepo.FindAllWithDetails(ctx)
}

// GetMyReservations trả về đặt chỗ của chính user, sắp theo start_time.
func (s *ReservationService) GetMyReservations(ctx context.Context, userID string) ([]domain.Reservation, error) {
	return s.reservationRepo.FindByUserID(ctx, userID)
}

// GetSlotSchedule trả về các đặt chỗ active sắp tới của một slot.
func (s *ReservationService) GetSlotSchedule(ctx context.Context, slotID string) ([]domain.Reservation, error) {
	if _, err := s.slotRepo.FindByID(ctx, slotID); err != nil {
		return nil, err
	}
	return s.reservationRepo.FindActiveBySlotID(ctx, slotID, s.now().UTC())
}
