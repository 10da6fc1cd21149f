package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Djimarr/projek-maintenance/internal/engine"
	"github.com/Djimarr/projek-maintenance/internal/handlers"
	log "github.com/sirupsen/logrus"
)

// maxTurns bounds one scripted session so a confused technician cannot loop forever.
const maxTurns = 500

var technicianNames = []string{"Ari", "Budi", "Citra", "Dewi", "Eko", "Fajar", "Gita", "Hadi"}

var problemReasons = []string{
	"Indicator lamp off",
	"Fan noisy",
	"Cable connector loose",
	"Reading out of range",
	"Corrosion on terminal",
}

var shiftNotes = []string{
	"Routine observation, no anomalies.",
	"Rain since 14:00, sensors checked.",
	"Power outage 10 minutes, genset took over.",
	"Network link intermittent, reported to IT.",
}

// jpegStub is a minimal JPEG payload used as a simulated photo.
var jpegStub = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0xFF, 0xD9}

// Behavior tunes how a simulated technician answers.
type Behavior struct {
	NOKRate   float64
	PhotoRate float64
	SoloRate  float64
}

// Technician is one simulated chat.
type Technician struct {
	ChatID   int64
	Name     string
	Behavior Behavior
	rng      *rand.Rand
}

// NewTechnician creates a technician with its own random source.
func NewTechnician(chatID int64, name string, b Behavior, seed int64) *Technician {
	return &Technician{ChatID: chatID, Name: name, Behavior: b, rng: rand.New(rand.NewSource(seed))}
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func postEvent(apiURL string, chatID int64, ev handlers.ChatEvent) ([]engine.Reply, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	url := fmt.Sprintf("%s/chat/%d/events", apiURL, chatID)
	resp, err := httpClient.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to send event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("event rejected with status: %d", resp.StatusCode)
	}
	var out handlers.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Replies, nil
}

// Outcome classifies the replies of a turn.
type Outcome int

const (
	Continue Outcome = iota
	Completed
	Aborted
)

func classify(replies []engine.Reply) Outcome {
	for _, r := range replies {
		switch {
		case strings.HasPrefix(r.Text, "Session #") && strings.Contains(r.Text, "completed"):
			return Completed
		case strings.Contains(r.Text, "Send /start"):
			return Aborted
		}
	}
	return Continue
}

// Respond picks the technician's next event for the last prompt.
func (t *Technician) Respond(replies []engine.Reply) handlers.ChatEvent {
	if len(replies) == 0 {
		return handlers.ChatEvent{Type: "command", Command: "start"}
	}
	last := replies[len(replies)-1]
	if len(last.Buttons) > 0 {
		return t.press(last.Buttons)
	}

	text := last.Text
	switch {
	case strings.Contains(text, "technician 1"):
		return textEvent(t.Name)
	case strings.Contains(text, "technician 2"):
		if t.rng.Float64() < t.Behavior.SoloRate {
			return textEvent("-")
		}
		return textEvent(t.partner())
	case strings.Contains(text, "YYYY-MM-DD"):
		return textEvent(time.Now().Format("2006-01-02"))
	case strings.Contains(text, "Enter the value in"), strings.HasPrefix(text, "Invalid value"):
		return textEvent(t.reading(text))
	case strings.Contains(text, "Describe the problem"):
		return textEvent(problemReasons[t.rng.Intn(len(problemReasons))])
	case strings.Contains(text, "summary"):
		return textEvent("Maintenance done, all systems nominal.")
	case strings.Contains(text, "logbook note"):
		return textEvent(shiftNotes[t.rng.Intn(len(shiftNotes))])
	default:
		return textEvent("normal")
	}
}

func (t *Technician) press(rows [][]engine.Button) handlers.ChatEvent {
	var options []engine.Choice
	for _, r := range rows {
		for _, b := range r {
			switch b.Choice.Action {
			case engine.ActionPass:
				if t.rng.Float64() >= t.Behavior.NOKRate {
					return choiceEvent(b.Choice)
				}
			case engine.ActionFail:
				return choiceEvent(b.Choice)
			case engine.ActionSkip:
				if t.rng.Float64() < t.Behavior.PhotoRate {
					return handlers.ChatEvent{Type: "photo", Photo: jpegStub}
				}
				return choiceEvent(b.Choice)
			case engine.ActionDate:
				return choiceEvent(b.Choice)
			case engine.ActionManualDate:
			default:
				options = append(options, b.Choice)
			}
		}
	}
	if len(options) == 0 {
		return textEvent("normal")
	}
	return choiceEvent(options[t.rng.Intn(len(options))])
}

func (t *Technician) partner() string {
	for {
		name := technicianNames[t.rng.Intn(len(technicianNames))]
		if name != t.Name {
			return name
		}
	}
}

func (t *Technician) reading(prompt string) string {
	var v float64
	switch {
	case strings.Contains(prompt, "Vac"):
		v = 215 + t.rng.Float64()*10
	case strings.Contains(prompt, "Vdc"):
		v = 11.5 + t.rng.Float64()*2
	case strings.Contains(prompt, "%"):
		v = 40 + t.rng.Float64()*60
	default:
		v = t.rng.Float64() * 100
	}
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if t.rng.Intn(2) == 0 {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

func textEvent(body string) handlers.ChatEvent {
	return handlers.ChatEvent{Type: "text", Text: body}
}

func choiceEvent(c engine.Choice) handlers.ChatEvent {
	return handlers.ChatEvent{Type: "choice", Choice: c}
}

// RunSession drives one session from /start to completion.
func RunSession(apiURL string, t *Technician, pause time.Duration) (Outcome, error) {
	logger := log.WithFields(log.Fields{"chat_id": t.ChatID, "technician": t.Name})
	replies, err := postEvent(apiURL, t.ChatID, handlers.ChatEvent{Type: "command", Command: "start"})
	if err != nil {
		return Aborted, err
	}
	for turn := 0; turn < maxTurns; turn++ {
		switch classify(replies) {
		case Completed:
			logger.WithField("turns", turn).Info("Session completed")
			return Completed, nil
		case Aborted:
			logger.WithField("turns", turn).Warn("Session aborted")
			return Aborted, nil
		}
		ev := t.Respond(replies)
		logger.WithFields(log.Fields{"type": ev.Type, "text": ev.Text, "choice": ev.Choice.Encode()}).Debug("Sending event")
		if pause > 0 {
			time.Sleep(pause)
		}
		if replies, err = postEvent(apiURL, t.ChatID, ev); err != nil {
			return Aborted, err
		}
	}
	return Aborted, fmt.Errorf("session did not finish within %d turns", maxTurns)
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	apiURL = strings.TrimRight(apiURL, "/")

	technicians := envInt("SIM_TECHNICIANS", 3)
	sessions := envInt("SIM_SESSIONS", 1)
	pause := time.Duration(envInt("SIM_STEP_MILLIS", 200)) * time.Millisecond
	behavior := Behavior{
		NOKRate:   envFloat("SIM_NOK_RATE", 0.1),
		PhotoRate: envFloat("SIM_PHOTO_RATE", 0.3),
		SoloRate:  envFloat("SIM_SOLO_RATE", 0.3),
	}
	baseChatID := int64(envInt("SIM_CHAT_ID_BASE", 900000))

	log.WithFields(log.Fields{
		"technicians": technicians,
		"sessions":    sessions,
		"api_url":     apiURL,
		"nok_rate":    behavior.NOKRate,
	}).Info("Starting technician simulation")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	for i := 0; i < technicians; i++ {
		t := NewTechnician(baseChatID+int64(i), technicianNames[i%len(technicianNames)], behavior, time.Now().UnixNano()+int64(i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; sessions == 0 || n < sessions; n++ {
				outcome, err := RunSession(apiURL, t, pause)
				if err != nil {
					log.WithError(err).WithField("chat_id", t.ChatID).Error("Session failed")
					time.Sleep(2 * time.Second)
					continue
				}
				if outcome == Completed {
					mu.Lock()
					completed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	log.WithField("completed_sessions", completed).Info("Simulation finished")
}
