package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinichq/clinic-booking/internal/auth"
	"github.com/clinichq/clinic-booking/internal/db"
)

// Seeds demo doctors with weekly availability windows plus a patient
// population. Every account gets the same demo password so the simulate
// tool can log in as any of them.
const demoPassword = "password123"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	hashed, err := auth.HashPassword(demoPassword)
	if err != nil {
		log.Fatalf("hash demo password: %v", err)
	}

	if err := seedDoctors(context.Background(), pool, 50, hashed); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000, hashed); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int, hashed string) error {
	log.Printf("seeding %d doctors", count)

	specializations := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		spec := specializations[gofakeit.Number(0, len(specializations)-1)]
		phone := gofakeit.Phone()

		var doctorID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO doctors (email, hashed_password, full_name, specialization, phone_number)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, gofakeit.Email(), hashed, name, spec, phone).Scan(&doctorID)
		if err != nil {
			return err
		}

		// Morning and afternoon windows on three random weekdays.
		for _, day := range pickDays(weekdays, 3) {
			for _, window := range [][2]string{{"09:00:00", "12:00:00"}, {"14:00:00", "17:00:00"}} {
				_, err := tx.Exec(ctx, `
					INSERT INTO availabilities (doctor_id, day_of_week, start_time, end_time, is_active)
					VALUES ($1, $2, $3, $4, true)
				`, doctorID, day, window[0], window[1])
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int, hashed string) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			dob := gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2007, 12, 31, 0, 0, 0, 0, time.UTC),
			)

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (email, hashed_password, full_name, date_of_birth, phone_number, address)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, gofakeit.Email(), hashed, gofakeit.Name(), dob, gofakeit.Phone(), gofakeit.Address().Address)
			if err != nil {
				tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	return nil
}

func pickDays(days []string, n int) []string {
	shuffled := make([]string, len(days))
	copy(shuffled, days)
	gofakeit.ShuffleStrings(shuffled)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
