package postgres_test

import (
	"context"
	"testing"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/repository/postgres"
	"github.com/dom/ridecore/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dhaka = domain.GeoPoint{Longitude: 90.4125, Latitude: 23.8103}

func offset(dLat float64) domain.GeoPoint {
	return domain.GeoPoint{Longitude: dhaka.Longitude, Latitude: dhaka.Latitude + dLat}
}

func nearbyIDs(users []*domain.NearbyUser) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	return ids
}

func TestUserLocationRepository_UpsertKeepsOneRow(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserLocationRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	first, err := repo.Upsert(ctx, user.ID, dhaka)
	require.NoError(t, err)

	moved := offset(0.01)
	second, err := repo.Upsert(ctx, user.ID, moved)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, moved.Latitude, second.Location.Latitude, 1e-9)
	assert.InDelta(t, moved.Longitude, second.Location.Longitude, 1e-9)

	count, err := repo.CountByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.InDelta(t, moved.Latitude, got.Location.Latitude, 1e-9)
}

func TestUserLocationRepository_DeleteAndMissing(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserLocationRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	_, err := repo.GetByUserID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)

	_, err = repo.Upsert(ctx, user.ID, dhaka)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), domain.ErrLocationNotFound)
}

func TestUserLocationRepository_FindNearby(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserLocationRepository(testDB.DB)
	ctx := context.Background()

	near, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	middle, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	far, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	passenger, _ := testutil.NewUserBuilder().WithType(domain.UserTypePassenger).Build(t, testDB.DB)
	offDuty, _ := testutil.NewUserBuilder().Inactive().Build(t, testDB.DB)

	placements := []struct {
		user  *domain.User
		point domain.GeoPoint
	}{
		{near, offset(0.001)},
		{middle, offset(0.005)},
		{far, offset(0.05)},
		{passenger, offset(0.002)},
		{offDuty, offset(0.003)},
	}
	for _, p := range placements {
		_, err := repo.Upsert(ctx, p.user.ID, p.point)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		query domain.NearbyQuery
		want  []uuid.UUID
	}{
		{
			name:  "all users nearest first",
			query: domain.NearbyQuery{Center: dhaka, Radius: 1000, Limit: 10},
			want:  []uuid.UUID{near.ID, passenger.ID, offDuty.ID, middle.ID},
		},
		{
			name:  "dispatchable drivers only",
			query: domain.NearbyQuery{Center: dhaka, Radius: 1000, DriversOnly: true, Limit: 10},
			want:  []uuid.UUID{near.ID, middle.ID},
		},
		{
			name:  "limit caps results",
			query: domain.NearbyQuery{Center: dhaka, Radius: 1000, Limit: 2},
			want:  []uuid.UUID{near.ID, passenger.ID},
		},
		{
			name:  "nothing in range",
			query: domain.NearbyQuery{Center: domain.GeoPoint{Longitude: 0, Latitude: 0}, Radius: 1000, Limit: 10},
			want:  []uuid.UUID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindNearby(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nearbyIDs(got))
			for i := 1; i < len(got); i++ {
				assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
			}
		})
	}
}

func TestUserLocationRepository_FindNearbyBoundaryIsInclusive(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserLocationRepository(testDB.DB)
	ctx := context.Background()

	driver, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	_, err := repo.Upsert(ctx, driver.ID, offset(0.004))
	require.NoError(t, err)

	all, err := repo.FindNearby(ctx, domain.NearbyQuery{Center: dhaka, Radius: 5000, Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 1)
	exact := all[0].Distance
	assert.InDelta(t, dhaka.DistanceTo(offset(0.004)), exact, 5)

	atBoundary, err := repo.FindNearby(ctx, domain.NearbyQuery{Center: dhaka, Radius: exact, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, atBoundary, 1)

	inside, err := repo.FindNearby(ctx, domain.NearbyQuery{Center: dhaka, Radius: exact - 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, inside)
}

func TestUserLocationRepository_SoftDeletedUsersAreHidden(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserLocationRepository(testDB.DB)
	ctx := context.Background()

	driver, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	_, err := repo.Upsert(ctx, driver.ID, offset(0.001))
	require.NoError(t, err)
	require.NoError(t, testDB.DB.Delete(&domain.User{}, "id = ?", driver.ID).Error)

	got, err := repo.FindNearby(ctx, domain.NearbyQuery{Center: dhaka, Radius: 1000, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
}
