package models

import "time"

// Reservation is a time-bounded claim on a car. Exactly one of AccountID or
// GuestEmail identifies the holder: registered users book firm reservations,
// guests book soft ones. Dates are calendar dates, inclusive on both ends.
type Reservation struct {
	ID              string    `json:"id"`
	AccountID       int64     `json:"account_id,omitempty"`
	GuestEmail      string    `json:"guest_email,omitempty"`
	CarID           int64     `json:"car_id"`
	Type            string    `json:"reservation_type"` // firm, soft
	Status          string    `json:"status"`
	PickupLocation  string    `json:"pickup_location"`
	DropoffLocation string    `json:"dropoff_location"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int64     `json:"version"`
}

// Days returns the inclusive duration of the reservation window.
func (r *Reservation) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// TotalPrice computes the price at read time from the car's current rate.
// It is never persisted, so it drifts with the car record.
func (r *Reservation) TotalPrice(pricePerDay float64) float64 {
	return float64(r.Days()) * pricePerDay
}

// HeldByGuest reports whether the reservation still belongs to an
// unauthenticated holder.
func (r *Reservation) HeldByGuest() bool {
	return r.AccountID == 0 && r.GuestEmail != ""
}

// Terminal reports whether the reservation can never change status again.
func (r *Reservation) Terminal() bool {
	return r.Status == StatusCancelled || r.Status == StatusOverridden
}
