package main

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path"

	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/tidemark/authclient/pkg/file"
)

const envconfigPrefix = "AUTHCTL"

// config is what authctl persists under the user's home directory between
// invocations: the endpoint configuration plus the identity established by
// the most recent session command.
type config struct {
	SessionURL string `json:"sessionURL"`
	TokenURL   string `json:"tokenURL,omitempty"`
	LoginURL   string `json:"loginURL"`
	LogoutURL  string `json:"logoutURL,omitempty"`
	UserID     string `json:"userId,omitempty"`
	TenantID   string `json:"tenantId,omitempty"`
}

// envOverrides is the subset of configuration that can come from the
// environment.
type envOverrides struct {
	SessionURL string `envconfig:"SESSION_URL"`
	TokenURL   string `envconfig:"TOKEN_URL"`
	LoginURL   string `envconfig:"LOGIN_URL"`
	LogoutURL  string `envconfig:"LOGOUT_URL"`
	Debug      bool   `envconfig:"DEBUG"`
}

// resolveConfig layers configuration sources lowest to highest precedence:
// the persisted config file, then AUTHCTL_* environment variables, then
// command line flags.
func resolveConfig(c *cli.Context) (*config, error) {
	cfg := &config{}
	if saved, err := getConfig(); err == nil && saved != nil {
		cfg = saved
	}
	env := envOverrides{}
	if err := envconfig.Process(envconfigPrefix, &env); err != nil {
		return nil, errors.Wrap(
			err,
			"error getting authctl configuration from environment",
		)
	}
	if env.SessionURL != "" {
		cfg.SessionURL = env.SessionURL
	}
	if env.TokenURL != "" {
		cfg.TokenURL = env.TokenURL
	}
	if env.LoginURL != "" {
		cfg.LoginURL = env.LoginURL
	}
	if env.LogoutURL != "" {
		cfg.LogoutURL = env.LogoutURL
	}
	if v := c.String(flagSessionURL); v != "" {
		cfg.SessionURL = v
	}
	if v := c.String(flagTokenURL); v != "" {
		cfg.TokenURL = v
	}
	if v := c.String(flagLoginURL); v != "" {
		cfg.LoginURL = v
	}
	if v := c.String(flagLogoutURL); v != "" {
		cfg.LogoutURL = v
	}
	return cfg, nil
}

func getConfig() (*config, error) {
	authctlHome, err := getAuthctlHome()
	if err != nil {
		return nil, errors.Wrap(err, "error finding authctl home")
	}
	authctlConfigFile := path.Join(authctlHome, "config")
	if !file.Exists(authctlConfigFile) {
		return nil, nil
	}

	configBytes, err := ioutil.ReadFile(authctlConfigFile)
	if err != nil {
		return nil, errors.Wrapf(
			err,
			"error reading authctl config file at %s",
			authctlConfigFile,
		)
	}

	config := &config{}
	if err := json.Unmarshal(configBytes, config); err != nil {
		return nil, errors.Wrapf(
			err,
			"error parsing authctl config file at %s",
			authctlConfigFile,
		)
	}

	return config, nil
}

func saveConfig(config *config) error {
	authctlHome, err := getAuthctlHome()
	if err != nil {
		return errors.Wrap(err, "error finding authctl home")
	}
	if _, err := os.Stat(authctlHome); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(
				err,
				"error checking for existence of authctl home at %s",
				authctlHome,
			)
		}
		// The directory doesn't exist-- create it
		if err := os.MkdirAll(authctlHome, 0755); err != nil {
			return errors.Wrapf(
				err,
				"error creating authctl home at %s",
				authctlHome,
			)
		}
	}
	authctlConfigFile := path.Join(authctlHome, "config")

	configBytes, err := json.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}
	if err :=
		ioutil.WriteFile(authctlConfigFile, configBytes, 0600); err != nil {
		return errors.Wrapf(err, "error writing to %s", authctlConfigFile)
	}
	return nil
}

func deleteConfig() error {
	authctlHome, err := getAuthctlHome()
	if err != nil {
		return errors.Wrap(err, "error finding authctl home")
	}
	authctlConfigFile := path.Join(authctlHome, "config")
	if !file.Exists(authctlConfigFile) {
		return nil
	}
	if err := os.Remove(authctlConfigFile); err != nil {
		return errors.Wrap(err, "error deleting configuration")
	}
	return nil
}

func getAuthctlHome() (string, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "error locating user's home directory")
	}
	return path.Join(homeDir, ".authctl"), nil
}
