package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
	// Mode "RO" turns the instance read-only: every mutating HTTP
	// endpoint is refused.
	Mode string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
}

type Auth struct {
	AllowedDomain string
	SessionTTL    time.Duration
}

type Rooms struct {
	ReactionTTL  time.Duration
	NudgeTTL     time.Duration
	PollInterval time.Duration
}

type Config struct {
	HTTP  HTTPServer
	Redis RedisCache
	Auth  Auth
	Rooms Rooms
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTP:  *newHTTP(),
		Redis: *newRedis(),
		Auth:  *newAuth(),
		Rooms: *newRooms(),
	}

	log.Printf("%s backend config : %+v\n", logtag, cfg)
	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
		Mode: getenv("HTTP_MODE", "RW"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", "shared"),
	}
}

func newAuth() *Auth {
	return &Auth{
		AllowedDomain: getenv("AUTH_ALLOWED_DOMAIN", "example.com"),
		SessionTTL:    getduration("AUTH_SESSION_TTL", 12*time.Hour),
	}
}

func newRooms() *Rooms {
	return &Rooms{
		ReactionTTL:  getduration("ROOM_REACTION_TTL", 5*time.Second),
		NudgeTTL:     getduration("ROOM_NUDGE_TTL", 2*time.Second),
		PollInterval: getduration("ROOM_POLL_INTERVAL", 200*time.Millisecond),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

func getduration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	fmt.Printf("%s %s unparsable. Using default value %s\n", logtag, key, defaultValue)
	return defaultValue
}
