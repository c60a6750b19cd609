package notify

import "time"

// Template keys carried on outbound events. Delivery picks layout by key;
// the rendered subject and body are already final.
const (
	KeyConfirmed  = "reservation_confirmed"
	KeyModified   = "reservation_modified"
	KeyCancelled  = "reservation_cancelled"
	KeyOverridden = "reservation_overridden"
	KeyConverted  = "reservation_converted"
)

// BodyFields is the structured payload every reservation email is rendered
// from. TotalPrice and Days are computed at dispatch time from the car's
// current rate.
type BodyFields struct {
	ReservationID   string  `json:"reservation_id"`
	CarName         string  `json:"car_name"`
	CarModel        string  `json:"car_model"`
	CarYear         int     `json:"car_year"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	PickupLocation  string  `json:"pickup_location"`
	DropoffLocation string  `json:"dropoff_location"`
	Days            int     `json:"days"`
	TotalPrice      float64 `json:"total_price"`
	Status          string  `json:"status"`
	FirstName       string  `json:"first_name,omitempty"`
}

// Event is the unit handed to a Sink. The core's contract ends here;
// transport is someone else's problem.
type Event struct {
	ID          string     `json:"id"`
	Recipient   string     `json:"recipient"`
	TemplateKey string     `json:"template_key"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	Fields      BodyFields `json:"fields"`
	CreatedAt   time.Time  `json:"created_at"`
}
