package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"easydrive/internal/database"
	"easydrive/internal/events"
	"easydrive/internal/identity"
	"easydrive/internal/models"
	"easydrive/internal/reservation"
)

type reservationView struct {
	*models.Reservation
	Days       int      `json:"days"`
	TotalPrice *float64 `json:"total_price,omitempty"`
}

func (s *HTTPServer) view(r *http.Request, res *models.Reservation) reservationView {
	v := reservationView{Reservation: res, Days: res.Days()}
	if car, err := s.cars.GetCar(r.Context(), res.CarID); err == nil {
		total := res.TotalPrice(car.PricePerDay)
		v.TotalPrice = &total
	}
	return v
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createReservation(w, r)
	case http.MethodGet:
		s.listReservations(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createReservation(w http.ResponseWriter, r *http.Request) {
	type request struct {
		CarID           int64  `json:"car_id"`
		GuestEmail      string `json:"guest_email"`
		PickupLocation  string `json:"pickup_location"`
		DropoffLocation string `json:"dropoff_location"`
		StartDate       string `json:"start_date"`
		EndDate         string `json:"end_date"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, end, err := parseWindow(body.StartDate, body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.RequestBooking(r.Context(), CallerFrom(r.Context()), reservation.BookingRequest{
		CarID:           body.CarID,
		GuestEmail:      body.GuestEmail,
		PickupLocation:  body.PickupLocation,
		DropoffLocation: body.DropoffLocation,
		StartDate:       start,
		EndDate:         end,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.view(r, res))
}

func (s *HTTPServer) listReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.ReservationFilter{
		Status: strings.TrimSpace(q.Get("status")),
		Type:   strings.TrimSpace(q.Get("reservation_type")),
	}
	if raw := strings.TrimSpace(q.Get("car_id")); raw != "" {
		carID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid car_id")
			return
		}
		filter.CarID = carID
	}

	list, err := s.svc.ListReservations(r.Context(), CallerFrom(r.Context()), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]reservationView, 0, len(list))
	for _, res := range list {
		views = append(views, s.view(r, res))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": views})
}

func (s *HTTPServer) handleReservation(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/reservations/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getReservation(w, r, id)
	case action == "" && r.Method == http.MethodPatch:
		s.updateReservation(w, r, id)
	case action == "confirm" && r.Method == http.MethodPost:
		s.setReservationStatus(w, r, id, s.svc.ConfirmReservation)
	case action == "cancel" && r.Method == http.MethodPost:
		s.setReservationStatus(w, r, id, s.svc.CancelReservation)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getReservation(w http.ResponseWriter, r *http.Request, id string) {
	res, err := s.svc.GetReservation(r.Context(), CallerFrom(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(r, res))
}

func (s *HTTPServer) updateReservation(w http.ResponseWriter, r *http.Request, id string) {
	type request struct {
		PickupLocation  *string `json:"pickup_location"`
		DropoffLocation *string `json:"dropoff_location"`
		StartDate       *string `json:"start_date"`
		EndDate         *string `json:"end_date"`
		Status          *string `json:"status"`
		Version         int64   `json:"version"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := reservation.UpdateRequest{
		PickupLocation:  body.PickupLocation,
		DropoffLocation: body.DropoffLocation,
		Status:          body.Status,
		Version:         body.Version,
	}
	if body.StartDate != nil {
		start, err := parseDate(*body.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.StartDate = &start
	}
	if body.EndDate != nil {
		end, err := parseDate(*body.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.EndDate = &end
	}

	res, err := s.svc.UpdateReservation(r.Context(), CallerFrom(r.Context()), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(r, res))
}

func (s *HTTPServer) setReservationStatus(
	w http.ResponseWriter,
	r *http.Request,
	id string,
	op func(context.Context, identity.Caller, string, int64) (*models.Reservation, error),
) {
	type request struct {
		Version int64 `json:"version"`
	}

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := op(r.Context(), CallerFrom(r.Context()), id, body.Version)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(r, res))
}

func (s *HTTPServer) handleAccountEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type request struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !strings.Contains(body.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	account := &models.Account{
		Email:     strings.TrimSpace(body.Email),
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Phone:     body.Phone,
		Address:   body.Address,
	}
	if err := s.accounts.CreateAccount(r.Context(), account); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "email is already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.bus.PublishJSON(events.EventAccountCreated, events.AccountCreatedPayload{
		AccountID: account.ID,
		Email:     account.Email,
	}); err != nil {
		s.logger.Error().Err(err).Int64("account_id", account.ID).Msg("failed to publish account event")
	}

	writeJSON(w, http.StatusCreated, account)
}

func (s *HTTPServer) handleCars(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cars, err := s.cars.ListCars(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cars": cars})
	case http.MethodPost:
		if !CallerFrom(r.Context()).Admin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		var car models.Car
		if err := json.NewDecoder(r.Body).Decode(&car); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.cars.CreateCar(r.Context(), &car); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, car)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCar(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/cars/"
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid car id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		car, err := s.cars.GetCar(r.Context(), id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				writeError(w, http.StatusNotFound, "car not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, car)
	case http.MethodPut:
		if !CallerFrom(r.Context()).Admin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		var car models.Car
		if err := json.NewDecoder(r.Body).Decode(&car); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		car.ID = id
		if err := s.cars.UpdateCar(r.Context(), &car); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				writeError(w, http.StatusNotFound, "car not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, car)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !CallerFrom(r.Context()).Admin {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}

	start, end, err := parseWindow(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := s.reports.BuildReport(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=reservations_%s_to_%s.xlsx",
		start.Format(models.DateLayout), end.Format(models.DateLayout)))
	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("failed to stream report")
	}
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", raw)
	}
	return d, nil
}

func parseWindow(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := parseDate(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
