//go:build integration

package mariadb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mariadb:11",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MARIADB_ROOT_PASSWORD": "test",
			"MARIADB_DATABASE":      "testdb",
			"MARIADB_USER":          "test",
			"MARIADB_PASSWORD":      "test",
		},
		WaitingFor: wait.ForLog("ready for connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("test:test@tcp(%s:%s)/testdb?parseTime=true", host, port.Port())

	pool, err := NewPool(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to MariaDB: %v", err)
	}

	seedLegacySchema(t, pool)

	cleanup := func() {
		_ = pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup
}

func seedLegacySchema(t *testing.T, pool *Pool) {
	t.Helper()
	ctx := context.Background()

	statements := []string{
		`CREATE TABLE missing_persons (
			id VARCHAR(64) PRIMARY KEY,
			name TEXT NOT NULL,
			age INT NOT NULL,
			gender TEXT NOT NULL,
			last_seen_location TEXT NOT NULL,
			last_seen_date TEXT NOT NULL,
			description TEXT NOT NULL,
			contact_details TEXT NOT NULL,
			images TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE unidentified_persons (
			id VARCHAR(64) PRIMARY KEY,
			images TEXT NOT NULL,
			location TEXT NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL,
			uploaded_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := pool.db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("Failed to create legacy schema: %v", err)
		}
	}
}

func TestMissingPersons(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	defer cleanup()

	ctx := context.Background()
	insert := `
		INSERT INTO missing_persons
			(id, name, age, gender, last_seen_location, last_seen_date,
			 description, contact_details, images, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	t.Run("ReadsRowsInCreationOrder", func(t *testing.T) {
		_, err := pool.db.ExecContext(ctx, insert,
			"m-2", "John Doe", 34, "male", "Prague", "2024-01-15",
			"Last seen near the station", "contact@example.com",
			`["http://example.com/a.jpg","http://example.com/b.jpg"]`,
			"approved", time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("Failed to seed row: %v", err)
		}
		_, err = pool.db.ExecContext(ctx, insert,
			"m-1", "Jane Doe", 28, "female", "Brno", "2024-01-10",
			"", "", "", "pending",
			time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("Failed to seed row: %v", err)
		}

		persons, err := pool.MissingPersons(ctx)
		if err != nil {
			t.Fatalf("MissingPersons failed: %v", err)
		}
		if len(persons) != 2 {
			t.Fatalf("Expected 2 persons, got %d", len(persons))
		}
		if persons[0].ID != "m-1" || persons[1].ID != "m-2" {
			t.Fatalf("Expected created_at order m-1, m-2, got %s, %s", persons[0].ID, persons[1].ID)
		}
		if len(persons[0].Images) != 0 {
			t.Errorf("Expected no images for empty column, got %v", persons[0].Images)
		}
		if len(persons[1].Images) != 2 {
			t.Errorf("Expected 2 decoded images, got %v", persons[1].Images)
		}
		if persons[1].Name != "John Doe" || persons[1].Age != 34 {
			t.Errorf("Row not scanned correctly: %+v", persons[1])
		}
	})

	t.Run("MalformedImageColumn", func(t *testing.T) {
		_, err := pool.db.ExecContext(ctx, insert,
			"m-bad", "Broken Row", 40, "male", "Ostrava", "2024-03-01",
			"", "", "{broken", "pending",
			time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("Failed to seed row: %v", err)
		}
		defer func() {
			if _, err := pool.db.ExecContext(ctx, "DELETE FROM missing_persons WHERE id = ?", "m-bad"); err != nil {
				t.Fatalf("Failed to remove row: %v", err)
			}
		}()

		if _, err := pool.MissingPersons(ctx); err == nil {
			t.Fatal("Expected error for malformed image column")
		}
	})
}

func TestUnidentifiedPersons(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	defer cleanup()

	ctx := context.Background()
	insert := `
		INSERT INTO unidentified_persons
			(id, images, location, description, status, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := pool.db.ExecContext(ctx, insert,
		"u-2", `["http://example.com/u2.jpg"]`, "Plzen", "Found near the river",
		"active", time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Failed to seed row: %v", err)
	}
	_, err = pool.db.ExecContext(ctx, insert,
		"u-1", "[]", "Liberec", "", "resolved",
		time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Failed to seed row: %v", err)
	}

	persons, err := pool.UnidentifiedPersons(ctx)
	if err != nil {
		t.Fatalf("UnidentifiedPersons failed: %v", err)
	}
	if len(persons) != 2 {
		t.Fatalf("Expected 2 persons, got %d", len(persons))
	}
	if persons[0].ID != "u-1" || persons[1].ID != "u-2" {
		t.Fatalf("Expected uploaded_at order u-1, u-2, got %s, %s", persons[0].ID, persons[1].ID)
	}
	if len(persons[1].Images) != 1 || persons[1].Images[0] != "http://example.com/u2.jpg" {
		t.Errorf("Images not decoded: %v", persons[1].Images)
	}
	if persons[1].Location != "Plzen" || persons[1].Status != "active" {
		t.Errorf("Row not scanned correctly: %+v", persons[1])
	}
}
