package service

import (
	"fmt"
	"log"
	"time"

	"campuspark/internal/clock"
	"campuspark/internal/db"
	"campuspark/internal/entities"
)

// Notifier is the notification-dispatcher collaborator. Delivery is
// fire-and-forget from the reservation core's perspective: failures are
// logged by callers and never retried here.
type Notifier interface {
	NotifyReservationStatus(res *db.Reservation, status string) error
}

// SenderService delivers reservation notifications over SendGrid email and
// Twilio SMS.
type SenderService struct{}

func NewSenderService() *SenderService {
	return &SenderService{}
}

func (s *SenderService) NotifyReservationStatus(res *db.Reservation, status string) error {
	emailData := entities.ReservationEmailData{
		UserName:           res.UserName,
		ReservationCode:    res.Code,
		VehicleModel:       res.VehicleModel,
		VehiclePlate:       res.VehiclePlate,
		StartTimeFormatted: clock.ToCivil(res.StartTime).Format("02 Jan 2006 15:04 MST"),
		EndTimeFormatted:   clock.ToCivil(res.EndTime).Format("02 Jan 2006 15:04 MST"),
		CurrentYear:        time.Now().In(clock.Eastern()).Year(),
		Status:             status,
	}

	emailSubject := fmt.Sprintf("Your CampusPark reservation is %s - Code: %s", status, emailData.ReservationCode)
	emailBody := fmt.Sprintf(
		"Hello %s,\n\nYour parking reservation is %s.\n\n"+
			"Reservation Details:\n"+
			"Reservation Code: %s\n"+
			"Vehicle: %s (Plate: %s)\n"+
			"Start: %s\n"+
			"End: %s\n\n"+
			"Thank you for choosing CampusPark.\n\n"+
			"%d CampusPark. All rights reserved.",
		emailData.UserName, status, emailData.ReservationCode, emailData.VehicleModel,
		emailData.VehiclePlate, emailData.StartTimeFormatted, emailData.EndTimeFormatted,
		emailData.CurrentYear,
	)

	go func(toEmail, toName, subject, body string) {
		if err := SendEmailWithSendGrid(toEmail, toName, subject, body); err != nil {
			log.Printf("ALERT (async): email delivery failed for reservation %s: %v", emailData.ReservationCode, err)
		}
	}(res.UserEmail, res.UserName, emailSubject, emailBody)

	if res.UserPhone == "" {
		return nil
	}
	smsMessage := fmt.Sprintf("CampusPark: reservation %s is %s.\nStart: %s.\nMore details in your email.",
		res.Code, status, emailData.StartTimeFormatted)
	if err := SendSMS(res.UserPhone, smsMessage); err != nil {
		return fmt.Errorf("sms delivery failed for reservation %s: %w", res.Code, err)
	}
	return nil
}
