package models

import "time"

type Car struct {
	ID              int64     `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Model           string    `json:"model" yaml:"model"`
	Year            int       `json:"year" yaml:"year"`
	Colour          string    `json:"colour" yaml:"colour"`
	CarType         string    `json:"car_type" yaml:"car_type"` // suv, sedan, bus, van, luxury-car
	PricePerDay     float64   `json:"price_per_day" yaml:"price_per_day"`
	PickupLocation  string    `json:"pickup_location" yaml:"pickup_location"`
	Status          string    `json:"status" yaml:"status"` // available, reserved, unavailable
	Rules           string    `json:"rules" yaml:"rules"`
	SeatingCapacity int       `json:"seating_capacity" yaml:"seating_capacity"`
	LuggageCapacity int       `json:"luggage_capacity" yaml:"luggage_capacity"`
	WheelDrive      string    `json:"wheel_drive" yaml:"wheel_drive"`
	FuelType        string    `json:"fuel_type" yaml:"fuel_type"`
	Transmission    string    `json:"transmission" yaml:"transmission"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"updated_at"`
}
