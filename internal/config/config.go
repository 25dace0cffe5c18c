package config

import (
	"os"
	"time"
)

// Reader captures reader and service configuration.
type Reader struct {
	// Name selects the PC/SC reader; empty means the first one.
	Name       string
	ListenAddr string
	LogLevel   string
	LogFormat  string
	// CardWait is how long a session waits for a card to be presented.
	CardWait time.Duration
	// PIN1 and PIN2 are optional; flags take precedence.
	PIN1 string
	PIN2 string
}

// DefaultListenAddr keeps the service on loopback: it hands out personal data.
const DefaultListenAddr = "127.0.0.1:8765"

var DefaultCardWait = 10 * time.Second

// FromEnv builds a Reader config from environment variables so main stays lean.
func FromEnv() Reader {
	addr := os.Getenv("JDL_LISTEN_ADDR")
	if addr == "" {
		addr = DefaultListenAddr
	}

	level := os.Getenv("JDL_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	format := os.Getenv("JDL_LOG_FORMAT")
	if format == "" {
		format = "text"
	}

	wait := DefaultCardWait
	if waitStr := os.Getenv("JDL_CARD_WAIT"); waitStr != "" {
		if duration, err := time.ParseDuration(waitStr); err == nil {
			wait = duration
		}
	}

	return Reader{
		Name:       os.Getenv("JDL_READER"),
		ListenAddr: addr,
		LogLevel:   level,
		LogFormat:  format,
		CardWait:   wait,
		PIN1:       os.Getenv("JDL_PIN1"),
		PIN2:       os.Getenv("JDL_PIN2"),
	}
}
