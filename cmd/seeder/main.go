package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// City is a trip endpoint.
type City struct {
	Name string
	Lat  float64
	Lon  float64
}

var cities = []City{
	{"Mumbai", 19.0760, 72.8777},
	{"Pune", 18.5204, 73.8567},
	{"Delhi", 28.7041, 77.1025},
	{"Bengaluru", 12.9716, 77.5946},
	{"Chennai", 13.0827, 80.2707},
	{"Hyderabad", 17.3850, 78.4867},
	{"Ahmedabad", 23.0225, 72.5714},
	{"Kolkata", 22.5726, 88.3639},
	{"Jaipur", 26.9124, 75.7873},
	{"Nagpur", 21.1458, 79.0882},
	{"Indore", 22.7196, 75.8577},
	{"Surat", 21.1702, 72.8311},
}

var (
	stateCodes  = []string{"MH", "KA", "DL", "GJ", "TN", "RJ", "MP", "TS"}
	truckModels = []string{"Tata 407", "Tata LPT 1613", "Ashok Leyland Dost", "Eicher Pro 2049", "BharatBenz 1617R", "Mahindra Blazo"}
	goods       = []string{"Steel coils", "Cement", "Textiles", "FMCG cartons", "Auto parts", "Grain", "Electronics"}
	buyers      = []string{"Shree Logistics", "Ganesh Transport", "Patel Roadways", "Sai Carriers"}
)

// Truck is the subset of the truck API this tool writes.
type Truck struct {
	ID                 string             `json:"id,omitempty"`
	RegistrationNumber string             `json:"registrationNumber"`
	Model              string             `json:"model"`
	ModelYear          int                `json:"modelYear,omitempty"`
	PurchaseDate       string             `json:"purchaseDate,omitempty"`
	PurchasePrice      float64            `json:"purchasePrice"`
	Expenses           map[string]float64 `json:"expenses,omitempty"`
	Status             string             `json:"status,omitempty"`
}

// Trip is the subset of the trip API this tool writes.
type Trip struct {
	ID              string             `json:"id,omitempty"`
	Source          string             `json:"source"`
	Destination     string             `json:"destination"`
	Goods           string             `json:"goods"`
	VehicleID       string             `json:"vehicleId"`
	Distance        float64            `json:"distance"`
	StartDate       string             `json:"startDate,omitempty"`
	Expenses        map[string]float64 `json:"expenses"`
	CustomerPayment float64            `json:"customerPayment"`
	Status          string             `json:"status,omitempty"`
	NetProfit       float64            `json:"netProfit,omitempty"`
}

// Client calls the API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates an API client for baseURL, e.g. http://localhost:8080/api.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login stores a token for later requests.
func (c *Client) Login(email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return fmt.Errorf("login returned no token")
	}
	c.token = resp.Token
	return nil
}

// CreateTruck adds a truck and returns it as stored.
func (c *Client) CreateTruck(t Truck) (*Truck, error) {
	var out Truck
	if err := c.do(http.MethodPost, "/trucks", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTrip adds a trip and returns it as stored.
func (c *Client) CreateTrip(t Trip) (*Trip, error) {
	var out Trip
	if err := c.do(http.MethodPost, "/trips", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetTripStatus moves a trip through its lifecycle.
func (c *Client) SetTripStatus(id, status string) error {
	return c.do(http.MethodPut, "/trips/"+id, map[string]string{"status": status}, nil)
}

// SellTruck records a sale and marks the truck sold.
func (c *Client) SellTruck(id string, price, commission float64, buyer string, date time.Time) error {
	body := map[string]any{
		"status": "sold",
		"sale": map[string]any{
			"buyer":      map[string]string{"name": buyer},
			"date":       date.Format("2006-01-02"),
			"price":      price,
			"commission": commission,
		},
	}
	return c.do(http.MethodPut, "/trucks/"+id, body, nil)
}

func haversineKm(a, b City) float64 {
	R := 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return R * c
}

// roadKm approximates road distance from the great-circle distance.
func roadKm(a, b City) float64 {
	return math.Round(haversineKm(a, b) * 1.25)
}

func randomRegistration(rng *rand.Rand) string {
	letters := make([]byte, 1+rng.Intn(3))
	for i := range letters {
		letters[i] = byte('A' + rng.Intn(26))
	}
	return fmt.Sprintf("%s%02d%s%04d", stateCodes[rng.Intn(len(stateCodes))], 1+rng.Intn(99), letters, rng.Intn(10000))
}

func randomTruck(rng *rand.Rand, now time.Time) Truck {
	price := float64(8+rng.Intn(30)) * 50000
	return Truck{
		RegistrationNumber: randomRegistration(rng),
		Model:              truckModels[rng.Intn(len(truckModels))],
		ModelYear:          2012 + rng.Intn(12),
		PurchaseDate:       now.AddDate(0, -rng.Intn(18), -rng.Intn(28)).Format("2006-01-02"),
		PurchasePrice:      price,
		Expenses: map[string]float64{
			"bodyWork":      float64(rng.Intn(40)) * 500,
			"paintExpenses": float64(rng.Intn(20)) * 500,
			"tyres":         float64(rng.Intn(6)) * 8000,
		},
	}
}

// randomTrip plans a trip between two distinct cities. Costs scale with
// distance and the customer payment leaves a margin of 10 to 40 percent.
func randomTrip(rng *rand.Rand, registration string, start time.Time) Trip {
	from := cities[rng.Intn(len(cities))]
	to := from
	for to.Name == from.Name {
		to = cities[rng.Intn(len(cities))]
	}
	km := roadKm(from, to)
	diesel := math.Round(km / 4 * 95)
	driver := math.Round(km * 3)
	tolls := math.Round(km * 2.5)
	costs := diesel + driver + tolls
	return Trip{
		Source:          from.Name,
		Destination:     to.Name,
		Goods:           goods[rng.Intn(len(goods))],
		VehicleID:       registration,
		Distance:        km,
		StartDate:       start.Format("2006-01-02"),
		Expenses:        map[string]float64{"diesel": diesel, "driver": driver, "tolls": tolls},
		CustomerPayment: math.Round(costs * (1.1 + rng.Float64()*0.3)),
	}
}

// Plan controls how much demo data is written.
type Plan struct {
	Trucks        int
	TripsPerTruck int
	SellEvery     int // every n-th truck is sold after its trips complete; 0 disables
}

// Seed writes trucks and trips through the API. Earlier trips of each truck
// are completed or cancelled and the last one is left in transit or pending,
// so the coupling between trip and truck status is exercised.
func Seed(c *Client, plan Plan, rng *rand.Rand, now time.Time) (trucks, trips int) {
	for i := 0; i < plan.Trucks; i++ {
		truck, err := c.CreateTruck(randomTruck(rng, now))
		if err != nil {
			log.WithError(err).Warn("Failed to create truck")
			continue
		}
		trucks++
		log.WithFields(log.Fields{
			"truck_id":     truck.ID,
			"registration": truck.RegistrationNumber,
			"model":        truck.Model,
		}).Info("Created truck")

		sell := plan.SellEvery > 0 && (i+1)%plan.SellEvery == 0
		for j := 0; j < plan.TripsPerTruck; j++ {
			start := now.AddDate(0, 0, -7*(plan.TripsPerTruck-j))
			trip, err := c.CreateTrip(randomTrip(rng, truck.RegistrationNumber, start))
			if err != nil {
				log.WithError(err).WithField("registration", truck.RegistrationNumber).Warn("Failed to create trip")
				continue
			}
			trips++

			last := j == plan.TripsPerTruck-1
			for _, status := range tripPath(rng, last && !sell) {
				if err := c.SetTripStatus(trip.ID, status); err != nil {
					log.WithError(err).WithField("trip_id", trip.ID).Warn("Failed to update trip")
					break
				}
			}
		}

		if sell {
			price := math.Round(truck.PurchasePrice * (1.05 + rng.Float64()*0.2))
			commission := math.Round(price * 0.01)
			if err := c.SellTruck(truck.ID, price, commission, buyers[rng.Intn(len(buyers))], now); err != nil {
				log.WithError(err).WithField("registration", truck.RegistrationNumber).Warn("Failed to sell truck")
				continue
			}
			log.WithField("registration", truck.RegistrationNumber).Info("Sold truck")
		}
	}
	return trucks, trips
}

// tripPath is the sequence of status updates for a trip. Open trips stay
// pending or in transit; closed ones finish completed, or now and then
// cancelled while in transit.
func tripPath(rng *rand.Rand, open bool) []string {
	if open {
		if rng.Intn(2) == 0 {
			return nil
		}
		return []string{"in-transit"}
	}
	if rng.Intn(6) == 0 {
		return []string{"in-transit", "cancelled"}
	}
	return []string{"in-transit", "completed"}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	apiURL := envString("API_BASE_URL", "http://localhost:8080/api")
	plan := Plan{
		Trucks:        envInt("SEED_TRUCKS", 10),
		TripsPerTruck: envInt("SEED_TRIPS_PER_TRUCK", 3),
		SellEvery:     envInt("SEED_SELL_EVERY", 4),
	}

	log.WithFields(log.Fields{
		"api_url":         apiURL,
		"trucks":          plan.Trucks,
		"trips_per_truck": plan.TripsPerTruck,
	}).Info("Seeding demo data")

	client := NewClient(apiURL)
	if token := os.Getenv("SEED_AUTH_TOKEN"); token != "" {
		client.token = token
	} else if err := client.Login(envString("SEED_EMAIL", "admin@ims.com"), envString("SEED_PASSWORD", "Admin@1234")); err != nil {
		log.WithError(err).Fatal("Login failed")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	trucks, trips := Seed(client, plan, rng, time.Now())
	log.WithFields(log.Fields{"trucks": trucks, "trips": trips}).Info("Seeding completed")
	if trucks == 0 {
		os.Exit(1)
	}
}
