package config

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"loglens-backend/internal/notify"
)

// NotifierConfig declares one delivery target. Email targets need the
// SMTP fields; webhook and slack targets need only a URL.
type NotifierConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	URL      string `yaml:"url"`
}

type Config struct {
	Notifiers []NotifierConfig `yaml:"notifiers"`
}

func LoadNotifiers(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.Notifiers) == 0 {
		return Config{}, fmt.Errorf("no notifiers configured")
	}
	return cfg, nil
}

func (c Config) BuildTargets() ([]notify.Target, error) {
	targets := make([]notify.Target, 0, len(c.Notifiers))
	for _, nc := range c.Notifiers {
		target, err := buildTarget(nc)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func buildTarget(nc NotifierConfig) (notify.Target, error) {
	switch strings.ToLower(nc.Type) {
	case "email":
		if nc.Host == "" || nc.From == "" || nc.To == "" {
			return notify.Target{}, fmt.Errorf("email notifier requires host, from, to")
		}
		port := nc.Port
		if port == 0 {
			port = 587
		}
		var auth smtp.Auth
		if nc.Username != "" {
			auth = smtp.PlainAuth("", nc.Username, nc.Password, nc.Host)
		}
		addr := fmt.Sprintf("%s:%d", nc.Host, port)
		return notify.Target{Adapter: notify.NewEmailAdapter(addr, nc.From, auth), Destination: nc.To}, nil
	case "webhook":
		if nc.URL == "" {
			return notify.Target{}, fmt.Errorf("webhook notifier requires url")
		}
		return notify.Target{Adapter: notify.NewWebhookAdapter(), Destination: nc.URL}, nil
	case "slack":
		if nc.URL == "" {
			return notify.Target{}, fmt.Errorf("slack notifier requires url")
		}
		return notify.Target{Adapter: notify.NewSlackAdapter(), Destination: nc.URL}, nil
	default:
		return notify.Target{}, fmt.Errorf("unsupported notifier type %q", nc.Type)
	}
}
