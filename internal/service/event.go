package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/internal/repository"
	"github.com/Shivanand-hulikatti/reunion/pkg/logger"
	"github.com/shopspring/decimal"
)

type RegisterInput struct {
	NumberOfGuests       int  `json:"number_of_guests"       validate:"gte=0,lte=20"`
	AttendingWithVehicle bool `json:"attending_with_vehicle"`
	NumberOfVehicles     int  `json:"number_of_vehicles"     validate:"gte=0,lte=10"`
}

// MyRegistration is the attendee's own view of their signup.
type MyRegistration struct {
	model.Registration
	TotalPeople int `json:"total_people"`
}

// EventService handles attendee sign-ups for the reunion.
type EventService struct {
	registrations RegistrationStore
	ticketPrice   decimal.Decimal
}

func NewEventService(registrations RegistrationStore, ticketPrice decimal.Decimal) *EventService {
	return &EventService{registrations: registrations, ticketPrice: ticketPrice}
}

// AmountOwed is one ticket for the attendee plus one per guest.
func (s *EventService) AmountOwed(guests int) decimal.Decimal {
	return s.ticketPrice.Mul(decimal.NewFromInt(int64(guests + 1)))
}

// Register signs the caller up. A second attempt yields repository.ErrAlreadyRegistered.
func (s *EventService) Register(ctx context.Context, who model.Identity, in RegisterInput) (*model.Registration, error) {
	if !in.AttendingWithVehicle {
		in.NumberOfVehicles = 0
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	reg, err := s.registrations.Create(ctx, repository.NewRegistration{
		UserID:               who.UserID,
		NumberOfGuests:       in.NumberOfGuests,
		AttendingWithVehicle: in.AttendingWithVehicle,
		NumberOfVehicles:     in.NumberOfVehicles,
		AmountOwed:           s.AmountOwed(in.NumberOfGuests),
	})
	if err != nil {
		// Surface domain errors directly so handlers can set the right status.
		if errors.Is(err, repository.ErrAlreadyRegistered) || errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("register for reunion: %w", err)
	}

	logger.Log.Info("reunion registration created",
		logger.String("registration_id", reg.ID),
		logger.String("user_id", who.UserID),
		logger.Int("guests", in.NumberOfGuests),
	)
	return reg, nil
}

// MyRegistration returns the caller's registration or repository.ErrNotFound.
func (s *EventService) MyRegistration(ctx context.Context, who model.Identity) (*MyRegistration, error) {
	reg, err := s.registrations.GetByUser(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get own registration: %w", err)
	}
	return &MyRegistration{Registration: *reg, TotalPeople: reg.Attendees()}, nil
}
