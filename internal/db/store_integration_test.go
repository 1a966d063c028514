//go:build integration

package db

import (
	"context"
	"testing"

	"github.com/mira/dine-finder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		postgresC.Terminate(ctx)
	})

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)

	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/testdb?sslmode=disable"

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
	})

	require.NoError(t, ApplyMigrations(ctx, pool))

	return pool
}

func TestStore_CityGetOrCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	store := NewStore(pool)
	ctx := context.Background()

	_, found, err := store.FindCityByName(ctx, "Sunnyvale")
	require.NoError(t, err)
	assert.False(t, found)

	id, err := store.CreateCity(ctx, "Sunnyvale")
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	again, found, err := store.FindCityByName(ctx, "Sunnyvale")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, again)

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM cities").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_FindCityByName_ExistingRow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	store := NewStore(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx, "INSERT INTO cities (id, name) VALUES (7, 'Sunnyvale')")
	require.NoError(t, err)

	id, found, err := store.FindCityByName(ctx, "Sunnyvale")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(7), id)
}

func TestInTx_WritesInvisibleUntilCommit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	store := NewStore(pool)
	ctx := context.Background()

	cityID, err := store.CreateCity(ctx, "Sunnyvale")
	require.NoError(t, err)

	countViaPool := func() int {
		var n int
		require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM restaurants").Scan(&n))
		return n
	}

	err = InTx(ctx, pool, func(tx pgx.Tx) error {
		txStore := store.WithTx(tx)
		for _, name := range []string{"Dish Dash", "Tarragon", "Meyhouse"} {
			if err := txStore.InsertRestaurant(ctx, &models.Restaurant{CityID: cityID, Name: name}); err != nil {
				return err
			}
		}
		// A separate connection must not see uncommitted rows.
		assert.Equal(t, 0, countViaPool())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, countViaPool())
}

func TestInTx_RollsBackOnError(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	store := NewStore(pool)
	ctx := context.Background()

	cityID, err := store.CreateCity(ctx, "Sunnyvale")
	require.NoError(t, err)

	failure := assert.AnError
	err = InTx(ctx, pool, func(tx pgx.Tx) error {
		txStore := store.WithTx(tx)
		if err := txStore.InsertRestaurant(ctx, &models.Restaurant{CityID: cityID, Name: "Dish Dash"}); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM restaurants").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestStore_ResetRestaurantIDSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	store := NewStore(pool)
	ctx := context.Background()

	cityID, err := store.CreateCity(ctx, "Sunnyvale")
	require.NoError(t, err)

	for _, id := range []int{3, 7, 5} {
		_, err := pool.Exec(ctx,
			"INSERT INTO restaurants (id, city_id, name) VALUES ($1, $2, $3)",
			id, cityID, "Restaurant")
		require.NoError(t, err)
	}

	next, err := store.ResetRestaurantIDSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), next)

	require.NoError(t, store.InsertRestaurant(ctx, &models.Restaurant{CityID: cityID, Name: "Newcomer"}))

	var newID int64
	require.NoError(t, pool.QueryRow(ctx, "SELECT id FROM restaurants WHERE name = 'Newcomer'").Scan(&newID))
	assert.Equal(t, int64(8), newID)
}

func TestStore_ResetRestaurantIDSequence_EmptyTable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	store := NewStore(pool)
	ctx := context.Background()

	next, err := store.ResetRestaurantIDSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func TestStore_ListRestaurants_FilterAndPaging(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	pool := setupTestDatabase(t)
	store := NewStore(pool)
	ctx := context.Background()

	sunnyvale, err := store.CreateCity(ctx, "Sunnyvale")
	require.NoError(t, err)
	oakland, err := store.CreateCity(ctx, "Oakland")
	require.NoError(t, err)

	seed := []models.Restaurant{
		{CityID: sunnyvale, Name: "Dish Dash", Address: "190 S Murphy Ave"},
		{CityID: sunnyvale, Name: "Tarragon", Address: "140 S Murphy Ave"},
		{CityID: sunnyvale, Name: "Meyhouse", Address: "128 E Fremont Ave"},
		{CityID: oakland, Name: "Commis", Address: "3859 Piedmont Ave"},
	}
	for i := range seed {
		require.NoError(t, store.InsertRestaurant(ctx, &seed[i]))
	}

	result, err := store.ListRestaurants(ctx, ListParams{City: "Sunnyvale", Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Restaurants, 2)
	// Name-ordered: Dish Dash, Meyhouse, Tarragon.
	assert.Equal(t, "Dish Dash", result.Restaurants[0].Name)
	assert.Equal(t, "Meyhouse", result.Restaurants[1].Name)

	rest, err := store.ListRestaurants(ctx, ListParams{City: "Sunnyvale", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest.Restaurants, 1)
	assert.Equal(t, "Tarragon", rest.Restaurants[0].Name)

	byQuery, err := store.ListRestaurants(ctx, ListParams{Query: "murphy", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, byQuery.Total)
}
