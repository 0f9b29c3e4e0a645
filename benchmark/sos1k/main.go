package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	sosGrpc "liyu1981.xyz/sos-response-service/pkg/grpc"
	"liyu1981.xyz/sos-response-service/pkg/models"
)

var maxUsers int = 1000
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

var grpcClient *sosGrpc.IncidentServiceClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

func main() {
	userIDs := make([]string, maxUsers)
	for i := 0; i < maxUsers; i++ {
		userIDs[i] = uuid.NewString()
	}
	fmt.Printf("generated %v user IDs\n", maxUsers)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	conn, err := grpc.Dial(grpcHostPort, grpc.WithInsecure())
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = sosGrpc.NewIncidentServiceClient(conn)

	fmt.Printf("gRPC server verified and connected\n")

	var startTime time.Time
	var usedTime time.Duration

	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := 0; i < maxUsers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			insertContact(userIDs[i])
			insertGeofence(userIDs[i])
			fmt.Printf("\rinserted contact and geofence for user %v", i)
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\rinserted directory for %v users: used time=%v seconds, throughput=%v action/second\n",
		maxUsers, usedTime.Seconds(), float64(maxUsers*2)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := 0; i < maxUsers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			doAction(userIDs[i])
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\n\rdid actions for %v users: used time=%v seconds, throughput=%v action/second\n",
		maxUsers, usedTime.Seconds(), float64(maxUsers*3)/usedTime.Seconds(),
	)
}

func flipCoin() bool {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Int31n(100000)%2 == 0
}

func rndFloat64(min, max float64, decimal int) float64 {
	rndMu.Lock()
	val := min + rnd.Float64()*(max-min)
	rndMu.Unlock()
	multiplier := math.Pow10(decimal)
	return math.Round(val*multiplier) / multiplier
}

func actorContext(userID string) context.Context {
	return sosGrpc.WithActor(context.Background(), models.Actor{ID: userID, Role: models.RoleUser})
}

func postJSON(userID, path string, payload any) (*http.Response, error) {
	jsonData, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s%s", httpHostPort, path), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	return http.DefaultClient.Do(req)
}

func insertContact(userID string) {
	resp, err := postJSON(userID, "/api/contacts", map[string]any{
		"name":         "Contact of " + userID[:8],
		"phone":        fmt.Sprintf("+1555%07d", int(rndFloat64(0, 9999999, 0))),
		"relationship": "family",
		"priority":     1,
		"channels":     []string{"sms", "push"},
	})
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
}

func insertGeofence(userID string) {
	lat := rndFloat64(35.0, 36.0, 4)
	lng := rndFloat64(139.0, 140.0, 4)
	ring := []map[string]float64{
		{"lat": lat, "lng": lng},
		{"lat": lat + 0.01, "lng": lng},
		{"lat": lat + 0.01, "lng": lng + 0.01},
		{"lat": lat, "lng": lng + 0.01},
		{"lat": lat, "lng": lng},
	}
	resp, err := postJSON(userID, "/api/geofences", map[string]any{
		"name":   "Home",
		"type":   "safe_zone",
		"active": true,
		"ring":   ring,
		"exit":   map[string]any{"enabled": true, "severity": "warning", "notifyContacts": true},
	})
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
}

func doAction(userID string) {
	deviceID := uuid.NewString()
	actions := []func(){
		genTriggerAction(userID, deviceID),
		genEvaluateAction(userID),
		genListAction(userID),
	}
	actionNames := []string{
		"Trigger",
		"EvaluateGeofences",
		"ListIncidents",
	}
	rndMu.Lock()
	rnd.Shuffle(len(actions), func(i, j int) {
		actions[i], actions[j] = actions[j], actions[i]
		actionNames[i], actionNames[j] = actionNames[j], actionNames[i]
	})
	rndMu.Unlock()
	for index, action := range actions {
		action()
		fmt.Printf("\rexecuted action %v for user %v", actionNames[index], userID)
		time.Sleep(time.Duration(100+int(rndFloat64(0, 1000, 0))) * time.Millisecond)
	}
}

func genTriggerAction(userID, deviceID string) func() {
	return func() {
		useHttp := flipCoin()

		lat := rndFloat64(35.0, 36.0, 4)
		lng := rndFloat64(139.0, 140.0, 4)
		eventID := uuid.NewString()

		if useHttp {
			resp, err := postJSON("", fmt.Sprintf("/devices/%s/events", deviceID), map[string]any{
				"eventId": eventID,
				"userId":  userID,
				"type":    "fall_detection",
				"lat":     lat,
				"lng":     lng,
			})
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				fmt.Printf("\nresponse status code != 201: %v\n", resp.StatusCode)
			}
		} else {
			resp, err := grpcClient.DeviceEvent(context.Background(), &sosGrpc.DeviceEventRequest{
				DeviceId: deviceID,
				EventId:  eventID,
				UserId:   userID,
				Type:     "fall_detection",
				Lat:      lat,
				Lng:      lng,
			})
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
				return
			}
			if resp.Result.IncidentID == "" {
				fmt.Printf("\nno incident raised: %+v\n", resp.Result)
			}
		}
	}
}

func genEvaluateAction(userID string) func() {
	return func() {
		useHttp := flipCoin()

		lat := rndFloat64(35.0, 36.0, 4)
		lng := rndFloat64(139.0, 140.0, 4)

		if useHttp {
			resp, err := postJSON(userID, "/api/geofences/evaluate", map[string]float64{"lat": lat, "lng": lng})
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				fmt.Printf("\nresponse status code != 200: %v\n", resp.StatusCode)
			}
		} else {
			_, err := grpcClient.EvaluateGeofences(actorContext(userID), &sosGrpc.EvaluateGeofencesRequest{UserId: userID, Lat: lat, Lng: lng})
			if err != nil {
				fmt.Printf("\nerror: %v\n", err)
			}
		}
	}
}

func genListAction(userID string) func() {
	return func() {
		req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s/api/incidents", httpHostPort), nil)
		req.Header.Set("X-User-Id", userID)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("\nresponse status code != 200: %v\n", resp.StatusCode)
		}
	}
}
