package repositories

import (
	"carebook/internal/database"
)

type Repository struct {
	User    UserRepository
	Center  CenterRepository
	Child   ChildRepository
	Booking BookingRepository
	Chat    ChatRepository
	Review  ReviewRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:    NewUserRepository(db),
		Center:  NewCenterRepository(db),
		Child:   NewChildRepository(db),
		Booking: NewBookingRepository(db),
		Chat:    NewChatRepository(db),
		Review:  NewReviewRepository(db),
	}
}
