package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/tidemark/authclient/pkg/signals"
)

func session(c *cli.Context) error {
	// Args
	if len(c.Args()) != 0 {
		return errors.New("session requires no arguments")
	}

	// Command-specific flags
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	client, err := getClient(c, cfg)
	if err != nil {
		return errors.Wrap(err, "error getting auth client")
	}

	ctx := signals.Context()

	if err := client.Bootstrap(ctx); err != nil {
		return err
	}

	state := client.State()
	if !state.IsAuthenticated() {
		if stateErr := state.Err(); stateErr != nil {
			return stateErr
		}
		return errors.New("session could not be established")
	}
	sess := state.Session()

	// Remember who we are so whoami works without another round trip.
	cfg.UserID = sess.UserID
	cfg.TenantID = sess.TenantID
	if err := saveConfig(cfg); err != nil {
		return errors.Wrap(err, "error saving configuration")
	}

	switch strings.ToLower(output) {
	case "table":
		table := uitable.New()
		table.AddRow("USER", "TENANT")
		table.AddRow(sess.UserID, sess.TenantID)
		fmt.Println(table)

	case "json":
		prettyJSON, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			return errors.Wrap(
				err,
				"error formatting output from session operation",
			)
		}
		fmt.Println(string(prettyJSON))
	}

	return nil
}
