package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinichq/clinic-booking/internal/config"
	"github.com/clinichq/clinic-booking/internal/db"
)

// Load generator for the booking API. Logs in a pool of seeded patients,
// books random slots against seeded doctors' availability windows, and
// finishes with a contention round that aims many workers at one slot to
// show the per-slot lock holding a single winner.
type SimConfig struct {
	APIBaseURL        string
	Duration          time.Duration
	Workers           int
	BookingRatio      float64
	PatientLimit      int
	DoctorLimit       int
	ContentionWorkers int
	DemoPassword      string
	PostgresDSN       string
}

type patientSession struct {
	Email string
	Token string
}

type availabilityWindow struct {
	DayOfWeek string
	StartTime string
	EndTime   string
}

type doctorInfo struct {
	ID      int64
	Windows []availabilityWindow
}

type DataPool struct {
	Patients []patientSession
	Doctors  []doctorInfo
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	booking OperationMetrics
	listing OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f", cfg.Duration, cfg.Workers, cfg.BookingRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	sim.pool, err = sim.loadDataPool(ctx, pgPool)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d patient sessions, %d doctors", len(sim.pool.Patients), len(sim.pool.Doctors))

	sim.Run()
	sim.RunContentionRound()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:        getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:          getDuration("SIM_DURATION", 30*time.Second),
		Workers:           getInt("SIM_WORKERS", 10),
		BookingRatio:      getFloat("SIM_BOOKING_RATIO", 0.7),
		PatientLimit:      getInt("SIM_PATIENT_LIMIT", 200),
		DoctorLimit:       getInt("SIM_DOCTOR_LIMIT", 50),
		ContentionWorkers: getInt("SIM_CONTENTION_WORKERS", 20),
		DemoPassword:      getEnv("SIM_DEMO_PASSWORD", "password123"),
		PostgresDSN:       baseCfg.PostgresDSN,
	}

	if cfg.BookingRatio < 0 || cfg.BookingRatio > 1 {
		cfg.BookingRatio = 0.7
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

// loadDataPool reads seeded patient emails and doctor windows straight
// from Postgres, then logs every patient in through the API to obtain a
// real bearer token.
func (s *Simulator) loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT email FROM patients WHERE is_active = true LIMIT $1`, s.config.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	for _, email := range emails {
		token, err := s.login(ctx, email)
		if err != nil {
			log.Printf("login failed for %s: %v", email, err)
			continue
		}
		dataPool.Patients = append(dataPool.Patients, patientSession{Email: email, Token: token})
	}

	rows, err = pool.Query(ctx, `
		SELECT a.doctor_id, a.day_of_week, a.start_time, a.end_time
		FROM availabilities a
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.is_active = true AND d.is_active = true
		ORDER BY a.doctor_id
		LIMIT $1
	`, s.config.DoctorLimit*10)
	if err != nil {
		return nil, fmt.Errorf("load availabilities: %w", err)
	}
	defer rows.Close()

	byDoctor := make(map[int64]*doctorInfo)
	var order []int64
	for rows.Next() {
		var doctorID int64
		var w availabilityWindow
		if err := rows.Scan(&doctorID, &w.DayOfWeek, &w.StartTime, &w.EndTime); err != nil {
			return nil, err
		}
		info, ok := byDoctor[doctorID]
		if !ok {
			info = &doctorInfo{ID: doctorID}
			byDoctor[doctorID] = info
			order = append(order, doctorID)
		}
		info.Windows = append(info.Windows, w)
	}

	for _, id := range order {
		dataPool.Doctors = append(dataPool.Doctors, *byDoctor[id])
		if len(dataPool.Doctors) >= s.config.DoctorLimit {
			break
		}
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patient sessions established")
	}
	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no doctors with active windows loaded")
	}

	return dataPool, nil
}

func (s *Simulator) login(ctx context.Context, email string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": s.config.DemoPassword,
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}

	var loginResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}
	return loginResp.AccessToken, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("running for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("main round complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if rng.Float64() < s.config.BookingRatio {
				s.doBooking(ctx, rng)
			} else {
				s.doListAppointments(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	doctor := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	window := doctor.Windows[rng.Intn(len(doctor.Windows))]

	at, ok := slotInWindow(window, rng, time.Now())
	if !ok {
		return
	}

	start := time.Now()
	status, err := s.createAppointment(ctx, patient.Token, doctor.ID, at)
	latency := time.Since(start)

	s.booking.Record(latency, err == nil && status == http.StatusCreated, status == http.StatusConflict)
}

func (s *Simulator) doListAppointments(ctx context.Context, rng *rand.Rand) {
	patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/appointments/patient", nil)
	req.Header.Set("Authorization", "Bearer "+patient.Token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	ok := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		ok = resp.StatusCode == http.StatusOK
	}
	s.listing.Record(latency, ok, false)
}

func (s *Simulator) createAppointment(ctx context.Context, token string, doctorID int64, at time.Time) (int, error) {
	body, _ := json.Marshal(map[string]any{
		"doctor_id":            doctorID,
		"appointment_datetime": at.Format("2006-01-02T15:04:05"),
		"reason":               "load test visit",
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// RunContentionRound fires every contention worker at the same doctor and
// slot. With the per-slot lock in place exactly one request should come
// back 201 and the rest 409.
func (s *Simulator) RunContentionRound() {
	if s.config.ContentionWorkers <= 0 {
		return
	}

	doctor := s.pool.Doctors[0]
	window := doctor.Windows[0]
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	at, ok := slotInWindow(window, rng, time.Now().AddDate(0, 6, 0))
	if !ok {
		log.Println("contention round skipped: no slot derivable from first window")
		return
	}

	workers := s.config.ContentionWorkers
	if workers > len(s.pool.Patients) {
		workers = len(s.pool.Patients)
	}

	log.Printf("contention round: %d workers targeting doctor %d at %s", workers, doctor.ID, at.Format(time.RFC3339))

	var created, conflicted, failed int64
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(patient patientSession) {
			defer wg.Done()
			status, err := s.createAppointment(ctx, patient.Token, doctor.ID, at)
			switch {
			case err == nil && status == http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case status == http.StatusConflict:
				atomic.AddInt64(&conflicted, 1)
			default:
				atomic.AddInt64(&failed, 1)
			}
		}(s.pool.Patients[i])
	}
	wg.Wait()

	log.Printf("contention result: created=%d conflicted=%d failed=%d (want exactly 1 created)", created, conflicted, failed)
}

func (s *Simulator) PrintReport() {
	fmt.Println()
	fmt.Println("=== simulation report ===")
	printOperation("booking", &s.booking)
	printOperation("listing", &s.listing)
}

func printOperation(name string, om *OperationMetrics) {
	avg, p50, p95 := om.Stats()
	fmt.Printf("%-10s total=%d success=%d conflict=%d error=%d avg=%s p50=%s p95=%s\n",
		name,
		atomic.LoadInt64(&om.Total),
		atomic.LoadInt64(&om.Success),
		atomic.LoadInt64(&om.Conflict),
		atomic.LoadInt64(&om.Error),
		avg, p50, p95)
}

// slotInWindow picks a random half-hour slot inside the window on the
// next calendar date matching the window's weekday, at least one day out.
func slotInWindow(w availabilityWindow, rng *rand.Rand, after time.Time) (time.Time, bool) {
	startHour, startMin, ok := parseClock(w.StartTime)
	if !ok {
		return time.Time{}, false
	}
	endHour, endMin, ok := parseClock(w.EndTime)
	if !ok {
		return time.Time{}, false
	}

	startSlot := startHour*2 + startMin/30
	endSlot := endHour*2 + endMin/30
	if endSlot <= startSlot {
		return time.Time{}, false
	}
	slot := startSlot + rng.Intn(endSlot-startSlot)

	day := after.AddDate(0, 0, 1)
	for i := 0; i < 7; i++ {
		if day.Weekday().String() == w.DayOfWeek {
			return time.Date(day.Year(), day.Month(), day.Day(), slot/2, (slot%2)*30, 0, 0, time.Local), true
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

func parseClock(s string) (hour, minute int, ok bool) {
	if len(s) < 5 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(s[0:2])
	m, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return h, m, true
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
