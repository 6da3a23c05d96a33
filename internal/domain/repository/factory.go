package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Reservations() ReservationRepository
	Orders() OrderRepository
}
