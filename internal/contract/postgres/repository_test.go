package postgres

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
)

func getMigrationsPath() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	parentDir := filepath.Dir(dir)      // internal/contract
	parentDir = filepath.Dir(parentDir) // internal
	return filepath.Join(parentDir, "database", "migrations")
}

func setupTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/testdb?sslmode=disable"

	m, err := migrate.New("file://"+getMigrationsPath(), dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("failed to run migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	repo, err := New(pool, zap.NewNop())
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return repo, cleanup
}

func testContract(landlordID uuid.UUID) *contract.Contract {
	return &contract.Contract{
		ContractNumber: "VH-2026-000001",
		ContractType:   contract.TypeRentalUrban,
		CurrentState:   contract.StatusDraft,
		LandlordID:     landlordID,
		PropertyID:     uuid.New(),
		LandlordData:   contract.JSONMap{"full_name": "Alice"},
	}
}

func TestRepository_CreateAndGetContract(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	c := testContract(uuid.New())
	require.NoError(t, repo.CreateContract(ctx, c))
	require.NotEqual(t, uuid.Nil, c.ID)
	require.Equal(t, 1, c.Version)

	fetched, err := repo.GetContractByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ContractNumber, fetched.ContractNumber)
	require.Equal(t, "Alice", fetched.LandlordData["full_name"])

	byNumber, err := repo.GetContractByNumber(ctx, c.ContractNumber)
	require.NoError(t, err)
	require.Equal(t, c.ID, byNumber.ID)
}

func TestRepository_GetContractByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.GetContractByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, contract.ErrNotFound)
}

func TestRepository_UpdateContract_OptimisticLocking(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	c := testContract(uuid.New())
	require.NoError(t, repo.CreateContract(ctx, c))

	stale := *c
	c.CurrentState = contract.StatusLandlordCompleting
	require.NoError(t, repo.UpdateContract(ctx, c))
	require.Equal(t, 2, c.Version)

	stale.CurrentState = contract.StatusTenantInvited
	err := repo.UpdateContract(ctx, &stale)
	require.ErrorIs(t, err, contract.ErrVersionConflict)
}

func TestRepository_AppendAndGetHistory(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	c := testContract(uuid.New())
	require.NoError(t, repo.CreateContract(ctx, c))

	entry := contract.NewHistoryEntry(c.ID, contract.ActionDraftCreated, "created", c.LandlordID, contract.RoleLandlord, "", contract.StatusDraft, nil, contract.HistoryMetadata{IP: "10.0.0.1"}, c.CreatedAt)
	require.NoError(t, repo.AppendHistory(ctx, entry))

	history, err := repo.GetHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "10.0.0.1", history[0].Metadata.IP)
	require.True(t, history[0].VerifyIntegrity())
}

func TestRepository_GuaranteeLifecycle(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	c := testContract(uuid.New())
	c.ContractType = contract.TypeRentalCommercial
	require.NoError(t, repo.CreateContract(ctx, c))

	g := &contract.Guarantee{
		ContractID:    c.ID,
		Type:          "insurance_policy",
		Currency:      "CLP",
		PolicyNumber:  "POL-1",
		Issuer:        "Acme Insurance",
		EffectiveDate: c.CreatedAt,
		Status:        "pending",
	}
	require.NoError(t, repo.AddGuarantee(ctx, g))

	g.Status = "active"
	g.Verified = true
	require.NoError(t, repo.UpdateGuarantee(ctx, g))

	fetched, err := repo.GetContractByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Guarantees, 1)
	require.True(t, fetched.Guarantees[0].Verified)
	require.True(t, fetched.HasRequiredGuarantee())
}

func TestRepository_NextSequence_PerBucketIncrement(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	v1, err := repo.NextSequence(ctx, "contract-number:2026")
	require.NoError(t, err)
	v2, err := repo.NextSequence(ctx, "contract-number:2026")
	require.NoError(t, err)
	require.Equal(t, v1+1, v2)

	v3, err := repo.NextSequence(ctx, "contract-number:2027")
	require.NoError(t, err)
	require.Equal(t, 1, v3)
}

func TestRepository_ListContracts_FiltersByLandlordAndState(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	landlord := uuid.New()
	c1 := testContract(landlord)
	c1.ContractNumber = "VH-2026-000010"
	require.NoError(t, repo.CreateContract(ctx, c1))

	c2 := testContract(landlord)
	c2.ContractNumber = "VH-2026-000011"
	c2.CurrentState = contract.StatusPublished
	require.NoError(t, repo.CreateContract(ctx, c2))

	other := testContract(uuid.New())
	other.ContractNumber = "VH-2026-000012"
	require.NoError(t, repo.CreateContract(ctx, other))

	results, err := repo.ListContracts(ctx, contract.ListFilters{LandlordID: &landlord, States: []contract.Status{contract.StatusPublished}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, c2.ID, results[0].ID)
}
