package reviewsController

import (
	"context"
	"strings"
	"testing"
	"time"

	. "carebook/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockReviewRepo struct {
	reviews map[uuid.UUID]*Review
	created []*Review
	deleted []uuid.UUID
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[uuid.UUID]*Review)}
}

func (m *mockReviewRepo) Create(ctx context.Context, review *Review) error {
	review.ID = uuid.New()
	m.created = append(m.created, review)
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	review, ok := m.reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return review, nil
}

func (m *mockReviewRepo) GetByCenter(
	ctx context.Context,
	centerID uuid.UUID,
) ([]Review, error) {
	var out []Review
	for _, review := range m.reviews {
		if review.CenterID == centerID {
			out = append(out, *review)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	m.deleted = append(m.deleted, reviewID)
	delete(m.reviews, reviewID)
	return nil
}

type mockBookingRepo struct {
	byCenter []Booking
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *Booking) error { return nil }

func (m *mockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) GetUserBookings(
	ctx context.Context,
	userID uuid.UUID,
) ([]Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) GetByUserAndCenter(
	ctx context.Context,
	userID, centerID uuid.UUID,
) ([]Booking, error) {
	return m.byCenter, nil
}

func (m *mockBookingRepo) Update(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	return nil
}

func (m *mockBookingRepo) CompleteOverdue(
	ctx context.Context,
	tx *gorm.DB,
	userID *uuid.UUID,
	now time.Time,
) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepo) ClearUserBookingsCache(ctx context.Context, userID uuid.UUID) {}

type mockCenterRepo struct {
	centers map[uuid.UUID]*Center
}

func newMockCenterRepo() *mockCenterRepo {
	return &mockCenterRepo{centers: make(map[uuid.UUID]*Center)}
}

func (m *mockCenterRepo) GetByID(ctx context.Context, id uuid.UUID) (*Center, error) {
	center, ok := m.centers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return center, nil
}

func (m *mockCenterRepo) GetAll(ctx context.Context) ([]Center, error) { return nil, nil }

func (m *mockCenterRepo) Create(ctx context.Context, center *Center) error { return nil }

func (m *mockCenterRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.centers[id]
	return ok, nil
}

type fixture struct {
	controller *ReviewsController
	reviews    *mockReviewRepo
	bookings   *mockBookingRepo
	centers    *mockCenterRepo
	user       *User
	center     *Center
}

func newFixture() *fixture {
	reviews := newMockReviewRepo()
	bookings := &mockBookingRepo{}
	centers := newMockCenterRepo()

	center := &Center{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Name: "Little Oaks"}
	centers.centers[center.ID] = center

	return &fixture{
		controller: &ReviewsController{
			reviewRepo:  reviews,
			bookingRepo: bookings,
			centerRepo:  centers,
		},
		reviews:  reviews,
		bookings: bookings,
		centers:  centers,
		user:     &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}},
		center:   center,
	}
}

func (f *fixture) withCompletedStay() {
	now := time.Now()
	f.bookings.byCenter = []Booking{
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			UserID:        f.user.ID,
			CenterID:      f.center.ID,
			StartDate:     now.Add(-72 * time.Hour),
			EndDate:       now.Add(-48 * time.Hour),
			Status:        BookingStatusCompleted,
		},
	}
}

func TestCanReview(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		bookings []Booking
		expected bool
	}{
		{
			name:     "no bookings at center",
			bookings: nil,
			expected: false,
		},
		{
			name: "completed stay",
			bookings: []Booking{
				{
					Status:    BookingStatusCompleted,
					StartDate: now.Add(-72 * time.Hour),
					EndDate:   now.Add(-48 * time.Hour),
				},
			},
			expected: true,
		},
		{
			name: "confirmed stay already ended",
			bookings: []Booking{
				{
					Status:    BookingStatusConfirmed,
					StartDate: now.Add(-48 * time.Hour),
					EndDate:   now.Add(-time.Hour),
				},
			},
			expected: true,
		},
		{
			name: "only upcoming stay",
			bookings: []Booking{
				{
					Status:    BookingStatusConfirmed,
					StartDate: now.Add(24 * time.Hour),
					EndDate:   now.Add(48 * time.Hour),
				},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.bookings.byCenter = tt.bookings

			eligibility, err := f.controller.CanReview(context.Background(), f.user, f.center.ID)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, eligibility.CanReview)
		})
	}
}

func TestSubmitReviewValidation(t *testing.T) {
	f := newFixture()
	f.withCompletedStay()

	tests := []struct {
		name     string
		request  SubmitReviewRequest
		expected error
	}{
		{
			name:     "missing centerId",
			request:  SubmitReviewRequest{Rating: 4, Text: "Lovely staff"},
			expected: ErrValidation,
		},
		{
			name:     "rating below minimum",
			request:  SubmitReviewRequest{CenterID: f.center.ID, Rating: 0, Text: "Lovely staff"},
			expected: ErrValidation,
		},
		{
			name:     "rating above maximum",
			request:  SubmitReviewRequest{CenterID: f.center.ID, Rating: 6, Text: "Lovely staff"},
			expected: ErrValidation,
		},
		{
			name:     "empty text",
			request:  SubmitReviewRequest{CenterID: f.center.ID, Rating: 4, Text: "   "},
			expected: ErrValidation,
		},
		{
			name: "text too long",
			request: SubmitReviewRequest{
				CenterID: f.center.ID,
				Rating:   4,
				Text:     strings.Repeat("a", MaxTextLength+1),
			},
			expected: ErrValidation,
		},
		{
			name:     "unknown center",
			request:  SubmitReviewRequest{CenterID: uuid.New(), Rating: 4, Text: "Lovely staff"},
			expected: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.SubmitReview(context.Background(), f.user, &tt.request)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	assert.Empty(t, f.reviews.created)
}

func TestSubmitReviewForbiddenWithoutCompletedStay(t *testing.T) {
	f := newFixture()
	now := time.Now()

	// In-progress booking: started but not yet ended.
	f.bookings.byCenter = []Booking{
		{
			BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
			Status:        BookingStatusConfirmed,
			StartDate:     now.Add(-time.Hour),
			EndDate:       now.Add(time.Hour),
		},
	}

	_, err := f.controller.SubmitReview(context.Background(), f.user, &SubmitReviewRequest{
		CenterID: f.center.ID,
		Rating:   5,
		Text:     "Great place",
	})

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, f.reviews.created)
}

func TestSubmitReviewSuccess(t *testing.T) {
	f := newFixture()
	f.withCompletedStay()

	review, err := f.controller.SubmitReview(context.Background(), f.user, &SubmitReviewRequest{
		CenterID: f.center.ID,
		Rating:   5,
		Text:     "  Great place  ",
	})

	require.NoError(t, err)
	assert.Equal(t, f.user.ID, review.UserID)
	assert.Equal(t, f.center.ID, review.CenterID)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "Great place", review.Text)
	assert.Equal(t, ReviewStatusApproved, review.Status)
}

func TestDeleteReview(t *testing.T) {
	f := newFixture()
	f.withCompletedStay()

	review, err := f.controller.SubmitReview(context.Background(), f.user, &SubmitReviewRequest{
		CenterID: f.center.ID,
		Rating:   3,
		Text:     "Fine",
	})
	require.NoError(t, err)

	t.Run("unknown review", func(t *testing.T) {
		err := f.controller.DeleteReview(context.Background(), f.user, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not the author", func(t *testing.T) {
		other := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}}
		err := f.controller.DeleteReview(context.Background(), other, review.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("author deletes own review", func(t *testing.T) {
		err := f.controller.DeleteReview(context.Background(), f.user, review.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{review.ID}, f.reviews.deleted)
	})
}
