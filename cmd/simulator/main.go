package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dom/ridecore/internal/domain"
	"github.com/dom/ridecore/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// Roughly one city block in degrees of latitude.
const stepDegrees = 0.0009

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "fleet":
		fleetCmd(apiURL, args)
	case "nearby":
		nearbyCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Fleet Simulator - Development tool for exercising live driver locations

USAGE:
  simulator <command> [options]

COMMANDS:
  fleet     Create drivers and a watching passenger, then move the drivers
            over the location websocket
  nearby    Query users around a point
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend base URL (default: http://localhost:8080)

EXAMPLES:
  # Five drivers wandering around central Dhaka for 20 steps
  simulator fleet

  # Twenty drivers, faster updates, custom center
  simulator fleet --drivers=20 --interval=250ms --center=23.7806,90.4070

  # Who is within 2km?
  simulator nearby --center=23.8103,90.4125 --distance=2000`)
}

func parseCenter(raw string) (domain.GeoPoint, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("center must be lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("invalid longitude: %w", err)
	}
	point := domain.GeoPoint{Longitude: lng, Latitude: lat}
	return point, point.Validate()
}

type simDriver struct {
	user     *domain.User
	conn     *gorillaWS.Conn
	position domain.GeoPoint
}

func (d *simDriver) step() {
	d.position.Latitude += (rand.Float64()*2 - 1) * stepDegrees
	d.position.Longitude += (rand.Float64()*2 - 1) * stepDegrees
}

func (d *simDriver) sendLocation() error {
	lat, lng := d.position.Latitude, d.position.Longitude
	msg, err := websocket.NewMessage(websocket.MessageTypeLocationUpdate, websocket.LocationUpdatePayload{
		Latitude:  &lat,
		Longitude: &lng,
	})
	if err != nil {
		return err
	}
	return d.conn.WriteJSON(msg)
}

// drainDriver discards acknowledgements and reports socket errors.
func drainDriver(d *simDriver) {
	for {
		_, data, err := d.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg websocket.Message
		if json.Unmarshal(data, &msg) == nil && msg.Type == websocket.MessageTypeError {
			fmt.Printf("  %s: server error %s\n", d.user.FullName, string(msg.Payload))
		}
	}
}

func fleetCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("fleet", flag.ExitOnError)
	drivers := fs.Int("drivers", 5, "Number of drivers to create")
	steps := fs.Int("steps", 20, "Location updates per driver")
	interval := fs.Duration("interval", time.Second, "Delay between update rounds")
	centerFlag := fs.String("center", "23.8103,90.4125", "Starting point as lat,lng")
	fs.Parse(args)

	if *drivers < 1 || *drivers > 500 {
		fmt.Println("Error: --drivers must be between 1 and 500")
		os.Exit(1)
	}
	center, err := parseCenter(*centerFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Fleet Simulator ===")
	fmt.Println()

	fmt.Print("Creating watching passenger... ")
	passenger, passengerToken, err := client.CreateUser("Watcher", domain.UserTypePassenger)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	if err := client.UpdateLocation(passengerToken, center); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	watcher, _, err := gorillaWS.DefaultDialer.Dial(client.WebSocketURL(passengerToken), nil)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()
	fmt.Printf("OK (%s)\n", passenger.FullName)

	var received atomic.Int64
	go func() {
		for {
			_, data, err := watcher.ReadMessage()
			if err != nil {
				return
			}
			var msg websocket.Message
			if json.Unmarshal(data, &msg) == nil && msg.Type == websocket.MessageTypeLocationBroadcast {
				received.Add(1)
			}
		}
	}()

	fmt.Println()
	fmt.Printf("Starting %d drivers:\n", *drivers)
	fleet := make([]*simDriver, 0, *drivers)
	for i := 0; i < *drivers; i++ {
		user, token, err := client.CreateUser(fmt.Sprintf("Driver%d", i+1), domain.UserTypeDriver)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to create driver: %v\n", i+1, *drivers, err)
			os.Exit(1)
		}
		conn, _, err := gorillaWS.DefaultDialer.Dial(client.WebSocketURL(token), nil)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to connect: %v\n", i+1, *drivers, err)
			os.Exit(1)
		}
		d := &simDriver{user: user, conn: conn, position: center}
		d.step()
		go drainDriver(d)
		fleet = append(fleet, d)
		fmt.Printf("  [%d/%d] %s online\n", i+1, *drivers, user.FullName)
	}
	defer func() {
		for _, d := range fleet {
			d.conn.Close()
		}
	}()

	fmt.Println()
	fmt.Printf("Moving drivers for %d rounds every %s...\n", *steps, *interval)
	sent := 0
	for round := 1; round <= *steps; round++ {
		for _, d := range fleet {
			d.step()
			if err := d.sendLocation(); err != nil {
				fmt.Printf("  %s: send failed: %v\n", d.user.FullName, err)
				continue
			}
			sent++
		}
		fmt.Printf("  round %d/%d: %d updates sent, %d broadcasts seen by passenger\n",
			round, *steps, sent, received.Load())
		time.Sleep(*interval)
	}

	nearby, err := client.Nearby(center, 2000)
	if err != nil {
		fmt.Printf("Nearby query failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  SIMULATION COMPLETE")
	fmt.Println("=========================================")
	fmt.Println()
	fmt.Printf("  Updates sent:        %d\n", sent)
	fmt.Printf("  Broadcasts received: %d\n", received.Load())
	fmt.Printf("  Users within 2km:    %d\n", len(nearby))
	fmt.Println()
}

func nearbyCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("nearby", flag.ExitOnError)
	centerFlag := fs.String("center", "23.8103,90.4125", "Query point as lat,lng")
	distance := fs.Float64("distance", 1000, "Radius in meters")
	fs.Parse(args)

	center, err := parseCenter(*centerFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	users, err := NewAPIClient(apiURL).Nearby(center, *distance)
	if err != nil {
		fmt.Printf("Nearby query failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d user(s) within %.0fm of %s:\n\n", len(users), *distance, *centerFlag)
	for _, u := range users {
		fmt.Printf("  %-10s %-28s %8.1fm  (%.5f, %.5f)\n",
			u.UserType, u.FullName, u.Distance, u.Location.Latitude, u.Location.Longitude)
	}
}
