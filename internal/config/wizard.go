package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to guardpost! Let's configure the site server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Backend API.
	backendPrompt := promptui.Prompt{
		Label:   "Member API base URL",
		Default: cfg.Backend.BaseURL,
		Validate: func(s string) error {
			u, err := url.Parse(s)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("enter an absolute URL")
			}
			return nil
		},
	}
	backendURL, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	cfg.Backend.BaseURL = backendURL

	// 2. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 3. Session store.
	storePrompt := promptui.Select{
		Label: "Session store",
		Items: []string{
			"sqlite: single instance, stored under the data directory",
			"redis: shared between instances",
		},
	}
	storeIdx, _, err := storePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	if storeIdx == 1 {
		cfg.Session.Store = SessionStoreRedis
		redisPrompt := promptui.Prompt{
			Label:   "Redis address",
			Default: "localhost:6379",
		}
		addr, err := redisPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("redis address: %w", err)
		}
		cfg.Session.RedisAddr = addr
	}

	// 4. Job search providers.
	providersPrompt := promptui.Prompt{
		Label:   "Job search providers to enable (comma-separated: adzuna, reed, monster, contracts)",
		Default: "contracts",
	}
	providersStr, err := providersPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("providers: %w", err)
	}
	cfg.JobSearch.Contracts.Enabled = false
	for _, p := range splitAndTrim(providersStr) {
		switch strings.ToLower(p) {
		case "contracts":
			cfg.JobSearch.Contracts.Enabled = true
		case "adzuna", "reed", "monster":
			fmt.Printf("Note: set GUARDPOST_JOB_SEARCH__%s__* credentials before running guardpost serve.\n", strings.ToUpper(p))
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
