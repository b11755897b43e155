package main

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/tidemark/authclient/authx"
)

func getClient(c *cli.Context, cfg *config) (*authx.Client, error) {
	clientConfig := authx.Config{
		SessionURL: cfg.SessionURL,
		TokenURL:   cfg.TokenURL,
		LoginURL:   cfg.LoginURL,
		LogoutURL:  cfg.LogoutURL,
	}
	if c.Bool(flagBrowse) {
		clientConfig.Navigator = &authx.BrowserNavigator{}
	} else {
		// Without a browser to bounce to, failures should be reported, not
		// silently swallowed by a redirect that can't happen.
		clientConfig.DisableRedirectOnUnauthenticated = true
	}
	if c.GlobalBool(flagDebug) || debugFromEnv() {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, errors.Wrap(err, "error creating logger")
		}
		clientConfig.Logger = logger
	}
	return authx.NewClient(clientConfig)
}

func debugFromEnv() bool {
	env := envOverrides{}
	if err := envconfig.Process(envconfigPrefix, &env); err != nil {
		return false
	}
	return env.Debug
}
