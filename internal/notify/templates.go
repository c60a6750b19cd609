package notify

import (
	"fmt"

	"easydrive/internal/models"
)

// HolderKind distinguishes the two template families: personalized mail for
// registered holders, generic mail for guests.
type HolderKind uint8

const (
	HolderRegistered HolderKind = iota
	HolderGuest
)

func (k HolderKind) String() string {
	if k == HolderGuest {
		return "guest"
	}
	return "registered"
}

// templateFunc renders a final subject and body from the event fields.
type templateFunc func(f BodyFields) (subject, body string)

// templateFor is the closed dispatch table from (holder kind, status) to a
// template. Statuses outside the notify set, and combinations that cannot
// occur (a registered holder can't be overridden), return ok=false.
func templateFor(kind HolderKind, status string) (key string, tmpl templateFunc, ok bool) {
	switch kind {
	case HolderRegistered:
		switch status {
		case models.StatusConfirmed:
			return KeyConfirmed, registeredConfirmed, true
		case models.StatusModified:
			return KeyModified, registeredModified, true
		case models.StatusCancelled:
			return KeyCancelled, registeredCancelled, true
		}
	case HolderGuest:
		switch status {
		case models.StatusConfirmed:
			return KeyConfirmed, guestConfirmed, true
		case models.StatusModified:
			return KeyModified, guestModified, true
		case models.StatusCancelled:
			return KeyCancelled, guestCancelled, true
		case models.StatusOverridden:
			return KeyOverridden, guestOverridden, true
		}
	}
	return "", nil, false
}

func carTitle(f BodyFields) string {
	return fmt.Sprintf("%s %s %d", f.CarName, f.CarModel, f.CarYear)
}

func details(f BodyFields) string {
	return fmt.Sprintf(
		"Reservation Details:\n"+
			"Reservation ID: %s\n"+
			"Start Date: %s\n"+
			"End Date: %s\n"+
			"Pickup Location: %s\n"+
			"Dropoff Location: %s\n"+
			"Duration: %d day(s)\n"+
			"Total Price: $%.2f\n"+
			"Status: %s\n",
		f.ReservationID, f.StartDate, f.EndDate,
		f.PickupLocation, f.DropoffLocation,
		f.Days, f.TotalPrice, f.Status,
	)
}

const signOff = "Thank you for choosing EasyDrive!"

func greeting(f BodyFields) string {
	if f.FirstName == "" {
		return "Dear customer,\n\n"
	}
	return fmt.Sprintf("Dear %s,\n\n", f.FirstName)
}

func registeredConfirmed(f BodyFields) (string, string) {
	subject := fmt.Sprintf("Your reservation for %s has been confirmed", f.CarName)
	body := greeting(f) +
		fmt.Sprintf("Congratulations! Your reservation for %s has been confirmed.\n\n", carTitle(f)) +
		details(f) + "\n" + signOff
	return subject, body
}

func registeredModified(f BodyFields) (string, string) {
	subject := fmt.Sprintf("Your reservation for %s has been modified", f.CarName)
	body := greeting(f) +
		fmt.Sprintf("Your reservation for %s has been modified.\n\n", carTitle(f)) +
		details(f) + "\n" + signOff
	return subject, body
}

func registeredCancelled(f BodyFields) (string, string) {
	subject := fmt.Sprintf("Your reservation for %s has been cancelled", f.CarName)
	body := greeting(f) +
		fmt.Sprintf("Your reservation for %s has been cancelled.\n\n", carTitle(f)) +
		details(f) + "\n" +
		"Visit our site now to make another reservation.\n" + signOff
	return subject, body
}

// registeredConverted is not part of the status table: conversion is an
// identity event, not a status transition, so the dispatcher calls it directly.
func registeredConverted(f BodyFields) (string, string) {
	subject := fmt.Sprintf("Your reservation for %s is now a firm reservation", f.CarName)
	body := greeting(f) +
		fmt.Sprintf("Welcome to EasyDrive! The reservation for %s you made as a guest has been linked to your new account and upgraded to a firm reservation.\n\n", carTitle(f)) +
		details(f) + "\n" + signOff
	return subject, body
}

func guestConfirmed(f BodyFields) (string, string) {
	subject := fmt.Sprintf("Your reservation for %s has been confirmed", f.CarName)
	body := fmt.Sprintf("Congratulations! Your reservation for %s has been confirmed.\n\n", carTitle(f)) +
		details(f) + "\n" + signOff
	return subject, body
}

func guestModified(f BodyFields) (string, string) {
	subject := fmt.Sprintf("Your reservation for %s has been modified", f.CarName)
	body := fmt.Sprintf("Your reservation for %s has been modified.\n\n", carTitle(f)) +
		details(f) + "\n" + signOff
	return subject, body
}

func guestCancelled(f BodyFields) (string, string) {
	subject := fmt.Sprintf("Your reservation for %s has been cancelled", f.CarName)
	body := fmt.Sprintf("Your reservation for %s has been cancelled.\n\n", carTitle(f)) +
		details(f) + "\n" +
		"Visit our site now to make another reservation.\n" + signOff
	return subject, body
}

func guestOverridden(f BodyFields) (string, string) {
	subject := fmt.Sprintf("Your reservation for %s has been overridden", f.CarName)
	body := fmt.Sprintf("Your soft reservation for %s has been overridden by a registered user. The car is no longer reserved for you.\n\n", carTitle(f)) +
		details(f) + "\n" +
		"Create an account now to ensure a firm reservation when next you reserve a car.\n" + signOff
	return subject, body
}
