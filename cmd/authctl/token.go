package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/tidemark/authclient/pkg/signals"
)

func token(c *cli.Context) error {
	// Args
	if len(c.Args()) != 0 {
		return errors.New("token requires no arguments")
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	if cfg.TokenURL == "" {
		return errors.New(
			"no token URL is configured; set one with --token-url or " +
				"AUTHCTL_TOKEN_URL",
		)
	}

	client, err := getClient(c, cfg)
	if err != nil {
		return errors.Wrap(err, "error getting auth client")
	}

	ctx := signals.Context()

	if err := client.Bootstrap(ctx); err != nil {
		return err
	}

	accessToken, err := client.GetToken(ctx)
	if err != nil {
		return err
	}

	fmt.Println(accessToken)

	return nil
}
