package models

import "fmt"

// Config represents the application configuration
type Config struct {
	Accounts []Account `yaml:"accounts"`
}

// Account represents one watched IMAP account and its notification target.
// Loaded once at startup and treated as read-only afterwards.
type Account struct {
	Name     string     `yaml:"name"`
	Host     string     `yaml:"host"`
	Port     int        `yaml:"port"`
	Username string     `yaml:"username"`
	Password string     `yaml:"password"`
	Mailbox  string     `yaml:"mailbox"`
	Ntfy     NtfyConfig `yaml:"ntfy"`
}

// NtfyConfig represents the ntfy push endpoint for one account
type NtfyConfig struct {
	URL      string `yaml:"url"`
	Topic    string `yaml:"topic"`
	ClickURL string `yaml:"clickUrl"`
}

// Addr returns the host:port dial address of the IMAP server
func (a *Account) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
