package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func whoami(c *cli.Context) error {
	// Args
	if len(c.Args()) != 0 {
		return errors.New("whoami requires no arguments")
	}

	// Command-specific flags
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	cfg, err := getConfig()
	if err != nil {
		return err
	}
	if cfg == nil || cfg.UserID == "" {
		return errors.New(
			"no session has been established; use the session command first",
		)
	}

	switch strings.ToLower(output) {
	case "table":
		table := uitable.New()
		table.AddRow("USER", "TENANT")
		table.AddRow(cfg.UserID, cfg.TenantID)
		fmt.Println(table)

	case "json":
		prettyJSON, err := json.MarshalIndent(
			struct {
				UserID   string `json:"userId"`
				TenantID string `json:"tenantId"`
			}{
				UserID:   cfg.UserID,
				TenantID: cfg.TenantID,
			},
			"",
			"  ",
		)
		if err != nil {
			return errors.Wrap(
				err,
				"error formatting output from whoami operation",
			)
		}
		fmt.Println(string(prettyJSON))
	}

	return nil
}
