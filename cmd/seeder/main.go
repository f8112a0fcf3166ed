package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	log "github.com/sirupsen/logrus"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Record payload for the create endpoint.
type Record struct {
	Kind        string  `json:"kind"`
	VehicleNo   string  `json:"vehicle_no"`
	OwnerName   string  `json:"owner_name"`
	ReferenceNo string  `json:"reference_no"`
	IssuedBy    string  `json:"issued_by"`
	ValidFrom   string  `json:"valid_from"`
	ValidTo     string  `json:"valid_to"`
	TotalFee    float64 `json:"total_fee"`
	Paid        float64 `json:"paid"`
	Balance     float64 `json:"balance"`
	Remarks     string  `json:"remarks"`
}

var authToken string

var kinds = []string{"fitness", "permit", "tax", "insurance"}

var owners = []string{
	"Asha Rao", "Vikram Shetty", "Meena Kulkarni", "Ravi Prasad",
	"Sunil Naik", "Deepa Hegde", "Arjun Pillai", "Kavita Joshi",
}

var issuers = map[string][]string{
	"fitness":   {"RTO Bengaluru Central", "RTO Mysuru", "RTO Mangaluru"},
	"permit":    {"RTO Bengaluru Central", "STA Karnataka"},
	"tax":       {"RTO Bengaluru Central", "RTO Hubballi"},
	"insurance": {"National Insurance", "Oriental Insurance", "United India"},
}

var fees = map[string]float64{
	"fitness":   800,
	"permit":    1500,
	"tax":       3200,
	"insurance": 5400,
}

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

// login authenticates with the seed credentials and stores the token for
// subsequent requests. The account must already exist with at least the
// clerk role; record creation is not open to viewers.
func login(apiURL, username, password string) error {
	data, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	resp, err := authorizedPost(apiURL+"/auth/login", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("login rejected for %q: provision a clerk or admin account first", username)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}
	return decodeToken(resp)
}

func decodeToken(resp *http.Response) error {
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	authToken = result.Token
	return nil
}

func vehicleNo(i int) string {
	districts := []string{"KA01", "KA02", "KA05", "KA19", "KA41"}
	series := []string{"AB", "CD", "MF", "PZ", "HN"}
	return fmt.Sprintf("%s%s%04d",
		districts[rand.Intn(len(districts))],
		series[rand.Intn(len(series))],
		1000+i)
}

func ddmmyyyy(t time.Time) string {
	return t.Format("02/01/2006")
}

// buildRecord spreads validity end dates around today so the seeded data
// covers active, expiring-soon and expired records.
func buildRecord(kind, vehicle string) Record {
	now := time.Now()

	// -60..+120 days around today
	endOffset := rand.Intn(181) - 60
	validTo := now.AddDate(0, 0, endOffset)
	validFrom := validTo.AddDate(-1, 0, 0)

	total := fees[kind]
	paid := total
	if rand.Intn(4) == 0 {
		paid = total / 2 // partial payment
	}

	issuedBy := issuers[kind][rand.Intn(len(issuers[kind]))]
	return Record{
		Kind:        kind,
		VehicleNo:   vehicle,
		OwnerName:   owners[rand.Intn(len(owners))],
		ReferenceNo: fmt.Sprintf("%s-%06d", kind[:3], rand.Intn(1000000)),
		IssuedBy:    issuedBy,
		ValidFrom:   ddmmyyyy(validFrom),
		ValidTo:     ddmmyyyy(validTo),
		TotalFee:    total,
		Paid:        paid,
		Balance:     total - paid,
	}
}

func createRecord(apiURL string, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	resp, err := authorizedPost(apiURL+"/records", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("record creation failed with status: %d", resp.StatusCode)
	}

	log.WithFields(log.Fields{
		"kind":       record.Kind,
		"vehicle_no": record.VehicleNo,
		"valid_to":   record.ValidTo,
	}).Info("Created record")
	return nil
}

func main() {
	authToken = os.Getenv("SEED_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8081/api"
	}

	vehicleCount := 20
	if val := os.Getenv("SEED_VEHICLES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			vehicleCount = n
		}
	}

	if authToken == "" {
		username := os.Getenv("SEED_USERNAME")
		password := os.Getenv("SEED_PASSWORD")
		if username == "" || password == "" {
			log.Fatal("Set SEED_AUTH_TOKEN or SEED_USERNAME/SEED_PASSWORD")
		}
		if err := login(apiURL, username, password); err != nil {
			log.WithError(err).Fatal("Login failed")
		}
	}

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"vehicles": vehicleCount,
	}).Info("Seeding records")

	created := 0
	for i := 0; i < vehicleCount; i++ {
		vehicle := vehicleNo(i)
		for _, kind := range kinds {
			// Not every vehicle carries every record kind
			if rand.Intn(5) == 0 {
				continue
			}
			if err := createRecord(apiURL, buildRecord(kind, vehicle)); err != nil {
				log.WithError(err).Error("Failed to create record")
				continue
			}
			created++

			// Occasionally renew so the vehicle gets a chain with a
			// retired predecessor.
			if rand.Intn(3) == 0 {
				if err := createRecord(apiURL, buildRecord(kind, vehicle)); err != nil {
					log.WithError(err).Error("Failed to create renewal")
					continue
				}
				created++
			}
		}
	}

	log.WithField("created_records", created).Info("Seeding completed")
	if created == 0 {
		log.Error("No records created. Ensure credentials are valid and API is reachable.")
		os.Exit(1)
	}
}
