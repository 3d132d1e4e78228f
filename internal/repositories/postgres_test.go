package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id BIGSERIAL PRIMARY KEY,
	email VARCHAR(255) NOT NULL UNIQUE,
	first_name VARCHAR(100) NOT NULL DEFAULT '',
	last_name VARCHAR(100) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transactions (
	id BIGSERIAL PRIMARY KEY,
	invoice_id VARCHAR(100) NOT NULL UNIQUE,
	order_id VARCHAR(100),
	service_type VARCHAR(50) NOT NULL,
	address_receiver VARCHAR(100) NOT NULL,
	amount_paid NUMERIC(18,2) NOT NULL DEFAULT 0,
	volume_received NUMERIC(18,2) NOT NULL DEFAULT 0,
	fees NUMERIC(18,2) NOT NULL DEFAULT 0,
	payment_responds JSONB,
	send_responds JSONB,
	status VARCHAR(50) NOT NULL,
	created_by_ip VARCHAR(64) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ,
	account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE
);
`

func setupPostgresContainer(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "password", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}

	container, err := tc.GenericContainer(context.Background(), tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, _ := container.Host(context.Background())
	port, _ := container.MappedPort(context.Background(), "5432")

	dsn := fmt.Sprintf("postgres://postgres:password@%s:%d/testdb?sslmode=disable", host, port.Int())

	var db *sqlx.DB
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	teardown := func() {
		db.Close()
		container.Terminate(context.Background())
	}

	return db, teardown
}

func insertAccount(t *testing.T, db *sqlx.DB, email, first, last string) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id, `INSERT INTO accounts (email, first_name, last_name) VALUES ($1, $2, $3) RETURNING id`, email, first, last)
	require.NoError(t, err)
	return id
}
