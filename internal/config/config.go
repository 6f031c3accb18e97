package config

import (
	"fmt"
	"os"

	"imap-push-notifier/internal/models"

	"gopkg.in/yaml.v2"
)

// Load reads the configuration from the specified YAML file, validates it
// and returns a Config struct
func Load(filepath string) (*models.Config, error) {
	configFile, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := yaml.Unmarshal(configFile, &config); err != nil {
		return nil, err
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects incomplete account entries at load time, so a
// misconfigured account fails before any watcher starts rather than at
// connect time. Accounts without an explicit mailbox default to INBOX.
func Validate(config *models.Config) error {
	if len(config.Accounts) == 0 {
		return fmt.Errorf("no accounts configured")
	}

	names := make(map[string]bool, len(config.Accounts))
	for i := range config.Accounts {
		account := &config.Accounts[i]
		if account.Name == "" {
			return fmt.Errorf("account %d: name is required", i)
		}
		if names[account.Name] {
			return fmt.Errorf("account %q: duplicate name", account.Name)
		}
		names[account.Name] = true

		if account.Host == "" {
			return fmt.Errorf("account %q: host is required", account.Name)
		}
		if account.Port <= 0 || account.Port > 65535 {
			return fmt.Errorf("account %q: invalid port %d", account.Name, account.Port)
		}
		if account.Username == "" {
			return fmt.Errorf("account %q: username is required", account.Name)
		}
		if account.Password == "" {
			return fmt.Errorf("account %q: password is required", account.Name)
		}
		if account.Ntfy.URL == "" {
			return fmt.Errorf("account %q: ntfy url is required", account.Name)
		}
		if account.Ntfy.Topic == "" {
			return fmt.Errorf("account %q: ntfy topic is required", account.Name)
		}
		if account.Mailbox == "" {
			account.Mailbox = "INBOX"
		}
	}

	return nil
}
