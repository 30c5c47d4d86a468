package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Eursukkul/hotel-booking/reservation-service/internal/clock"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/models"
	"github.com/Eursukkul/hotel-booking/reservation-service/internal/repository"
	"gorm.io/gorm"
)

type SearchInput struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
	Type     models.RoomType
}

// RoomOffer is a room that is free for the searched stay, priced for it.
type RoomOffer struct {
	Room      models.Room  `json:"room"`
	Quote     models.Quote `json:"quote"`
	Amenities []string     `json:"amenities"`
}

type RoomService interface {
	Search(ctx context.Context, in SearchInput) ([]RoomOffer, error)
	Availability(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bool, error)
	Get(ctx context.Context, roomID string) (*models.Room, error)
	Create(ctx context.Context, actor Actor, room *models.Room) error
}

type roomService struct {
	tx           repository.Transactor
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
	availability *AvailabilityEngine
	clock        clock.Clock
	taxPercent   float64
	log          *slog.Logger
}

func NewRoomService(
	tx repository.Transactor,
	rooms repository.RoomRepository,
	reservations repository.ReservationRepository,
	availability *AvailabilityEngine,
	clk clock.Clock,
	taxPercent float64,
	log *slog.Logger,
) RoomService {
	return &roomService{
		tx:           tx,
		rooms:        rooms,
		reservations: reservations,
		availability: availability,
		clock:        clk,
		taxPercent:   taxPercent,
		log:          log,
	}
}

// Search lists rooms with capacity for the party and no active reservation
// overlapping the stay. The room's own status flag is not consulted: it
// describes today, not the searched dates.
func (s *roomService) Search(ctx context.Context, in SearchInput) ([]RoomOffer, error) {
	checkIn, checkOut := models.DateOnly(in.CheckIn), models.DateOnly(in.CheckOut)
	if !checkOut.After(checkIn) || checkIn.Before(models.DateOnly(s.clock.Now())) {
		return nil, ErrInvalidDateRange
	}
	if in.Guests < 1 {
		return nil, ErrInvalidGuestCount
	}

	rooms, err := s.rooms.List(ctx, repository.RoomFilter{MinGuests: in.Guests, Type: in.Type})
	if err != nil {
		return nil, persistenceErr("list rooms", err)
	}
	busy, err := s.reservations.BusyRoomIDs(ctx, checkIn, checkOut)
	if err != nil {
		return nil, persistenceErr("list busy rooms", err)
	}
	taken := make(map[string]struct{}, len(busy))
	for _, id := range busy {
		taken[id] = struct{}{}
	}

	nights := models.NightsBetween(checkIn, checkOut)
	offers := make([]RoomOffer, 0, len(rooms))
	for _, room := range rooms {
		if _, ok := taken[room.ID]; ok {
			continue
		}
		offers = append(offers, RoomOffer{
			Room:      room,
			Quote:     models.PriceStay(room.BasePriceCents, nights, s.taxPercent),
			Amenities: room.Type.Amenities(),
		})
	}
	s.log.Debug("room search", "check_in", checkIn, "check_out", checkOut, "guests", in.Guests, "offers", len(offers))
	return offers, nil
}

func (s *roomService) Availability(ctx context.Context, roomID string, checkIn, checkOut time.Time) (bool, error) {
	checkIn, checkOut = models.DateOnly(checkIn), models.DateOnly(checkOut)
	if !checkOut.After(checkIn) {
		return false, ErrInvalidDateRange
	}

	var free bool
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
			if repository.IsNotFound(err) {
				return ErrRoomNotFound
			}
			return err
		}
		var err error
		free, err = s.availability.IsAvailable(ctx, tx, roomID, checkIn, checkOut, "")
		return err
	})
	if err != nil {
		return false, classify("check availability", err)
	}
	return free, nil
}

func (s *roomService) Get(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, persistenceErr("find room", err)
	}
	return room, nil
}

func (s *roomService) Create(ctx context.Context, actor Actor, room *models.Room) error {
	if !actor.Privileged() {
		return ErrForbidden
	}
	if room.Status == "" {
		room.Status = models.RoomAvailable
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return persistenceErr("create room", err)
	}
	return nil
}
