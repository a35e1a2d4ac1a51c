package constants

const (
	UserCachePrefix     = "user:"
	BookingsCachePrefix = "bookings"
	ChatsCachePrefix    = "chats"
	ReviewsCachePrefix  = "reviews"
	CentersCacheKey     = "centers:all"
)
