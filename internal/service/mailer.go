package service

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

// Mailer là notification sink cho mail xác nhận đặt chỗ. Gửi mail luôn là
// best-effort: lỗi chỉ được log, không bao giờ ảnh hưởng kết quả admission.
type Mailer interface {
	SendReservationConfirmation(toEmail, reservationID string) error
}

type smtpMailer struct {
	host   string
	port   string
	user   string
	pass   string
	logger *zerolog.Logger
}

// NewSMTPMailer trả về mailer gửi qua SMTP. Khi user rỗng, mailer bị tắt
// và mọi lần gửi chỉ log rồi bỏ qua.
func NewSMTPMailer(host, port, user, pass string, logger *zerolog.Logger) Mailer {
	return &smtpMailer{host: host, port: port, user: user, pass: pass, logger: logger}
}

func (m *smtpMailer) SendReservationConfirmation(toEmail, reservationID string) error {
	if m.user == "" {
		m.logger.Info().Str("to", toEmail).Msg("SMTP chưa cấu hình, bỏ qua mail xác nhận")
		return nil
	}

	msg := []byte(fmt.Sprintf(
		"Subject: Reservation Confirmation\r\n\r\nYour reservation has been confirmed. Reservation ID: %s. Thank you for booking with us!",
		reservationID,
	))

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.user, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("lỗi gửi mail xác nhận: %w", err)
	}
	m.logger.Info().Str("to", toEmail).Str("reservation_id", reservationID).Msg("đã gửi mail xác nhận đặt chỗ")
	return nil
}
