package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all triaged configuration.
type Config struct {
	NLP      NLPConfig
	Triage   TriageConfig
	Store    StoreConfig
	Actions  ActionsConfig
	Audit    AuditConfig
	Server   ServerConfig
	LogLevel string
}

// NLPConfig holds embedding and intent-classification settings.
type NLPConfig struct {
	ModelPath       string
	VocabPath       string
	ProjectionPath  string
	IntentThreshold float64
}

// TriageConfig holds scoring and clustering settings.
type TriageConfig struct {
	SimilarityThreshold float64
	SeverityConfidence  float64
	DispatchDedupWindow time.Duration // 0 disables re-dispatch suppression
	HistoryLimit        int           // cap on the historical corpus fed to the clusterer
}

// StoreConfig selects and configures the case store backend.
type StoreConfig struct {
	Backend  string // "memory", "sqlite", "rest"
	SQLite   string // database path for the sqlite backend
	Endpoint string // base URL for the rest backend
	APIKey   string
}

// ActionsConfig holds the collaborator endpoints. An empty URL leaves that
// collaborator unregistered.
type ActionsConfig struct {
	AmbulanceURL     string
	HospitalURL      string
	PoliceURL        string
	RoadClearanceURL string
	APIKey           string
	Timeout          time.Duration
}

// AuditConfig holds decision-trail output settings.
type AuditConfig struct {
	Sink       string // comma-separated: "stdout", "file", "webhook", "sqlite", "none"
	FilePath   string
	WebhookURL string
	SQLite     string
	Pretty     bool
	Async      bool
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		NLP: NLPConfig{
			ModelPath:       getenv("TRIAGE_MODEL_PATH", "models/model_quantized.onnx"),
			VocabPath:       getenv("TRIAGE_VOCAB_PATH", "models/vocab.txt"),
			ProjectionPath:  getenv("TRIAGE_PROJECTION_PATH", "models/2_Dense/model.safetensors"),
			IntentThreshold: getenvFloat("TRIAGE_INTENT_THRESHOLD", 0.35),
		},
		Triage: TriageConfig{
			SimilarityThreshold: getenvFloat("TRIAGE_SIMILARITY_THRESHOLD", 0.75),
			SeverityConfidence:  getenvFloat("TRIAGE_SEVERITY_CONFIDENCE", 0.85),
			DispatchDedupWindow: getenvDuration("TRIAGE_DISPATCH_DEDUP_WINDOW", 0),
			HistoryLimit:        getenvInt("TRIAGE_HISTORY_LIMIT", 200),
		},
		Store: StoreConfig{
			Backend:  getenv("TRIAGE_STORE", "sqlite"),
			SQLite:   getenv("TRIAGE_STORE_SQLITE_PATH", "triage.db"),
			Endpoint: os.Getenv("TRIAGE_STORE_ENDPOINT"),
			APIKey:   os.Getenv("TRIAGE_STORE_API_KEY"),
		},
		Actions: ActionsConfig{
			AmbulanceURL:     os.Getenv("TRIAGE_AMBULANCE_URL"),
			HospitalURL:      os.Getenv("TRIAGE_HOSPITAL_URL"),
			PoliceURL:        os.Getenv("TRIAGE_POLICE_URL"),
			RoadClearanceURL: os.Getenv("TRIAGE_ROAD_CLEARANCE_URL"),
			APIKey:           os.Getenv("TRIAGE_ACTIONS_API_KEY"),
			Timeout:          getenvDuration("TRIAGE_ACTION_TIMEOUT", 10*time.Second),
		},
		Audit: AuditConfig{
			Sink:       getenv("TRIAGE_AUDIT", "stdout"),
			FilePath:   getenv("TRIAGE_AUDIT_FILE", "decisions.jsonl"),
			WebhookURL: os.Getenv("TRIAGE_AUDIT_WEBHOOK_URL"),
			SQLite:     getenv("TRIAGE_AUDIT_SQLITE_PATH", "triage.db"),
			Pretty:     getenvBool("TRIAGE_AUDIT_PRETTY", false),
			Async:      getenvBool("TRIAGE_AUDIT_ASYNC", false),
		},
		Server: ServerConfig{
			Addr:           getenv("TRIAGE_ADDR", ":8080"),
			AllowedOrigins: splitNonEmpty(os.Getenv("TRIAGE_CORS_ORIGINS")),
		},
		LogLevel: getenv("TRIAGE_LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
