package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/tidemark/authclient/authx"
)

func logout(c *cli.Context) error {
	// Args
	if len(c.Args()) != 0 {
		return errors.New("logout requires no arguments")
	}

	cfg, err := getConfig()
	if err != nil {
		return err
	}

	// Opening the logout page is best effort. Even if the browser can't be
	// launched, we still want to discard the local identity.
	if c.Bool(flagBrowse) && cfg != nil && cfg.LogoutURL != "" {
		navigator := &authx.BrowserNavigator{}
		navigator.Navigate(cfg.LogoutURL) // nolint: errcheck
	}

	if err := deleteConfig(); err != nil {
		return errors.Wrap(err, "error deleting configuration")
	}

	fmt.Println("Logout was successful.")

	return nil
}
