package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "authctl"
	app.Usage = "Establish and inspect sessions against an auth backend"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  flagsDebug,
			Usage: "Enable verbose diagnostic output",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "session",
			Usage: "Establish a session and display the resulting identity",
			Flags: []cli.Flag{
				cliFlagOutput,
				cli.BoolFlag{
					Name: flagsBrowse,
					Usage: "On failure, open the login page using the " +
						"system's default web browser",
				},
				cliFlagSessionURL,
				cliFlagTokenURL,
				cliFlagLoginURL,
				cliFlagLogoutURL,
			},
			Action: session,
		},
		{
			Name:  "token",
			Usage: "Establish a session and fetch a short-lived access token",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name: flagsBrowse,
					Usage: "On failure, open the login page using the " +
						"system's default web browser",
				},
				cliFlagSessionURL,
				cliFlagTokenURL,
				cliFlagLoginURL,
				cliFlagLogoutURL,
			},
			Action: token,
		},
		{
			Name:  "whoami",
			Usage: "Display the identity persisted by the last session command",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: whoami,
		},
		{
			Name:  "logout",
			Usage: "Discard client-side auth state",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name: flagsBrowse,
					Usage: "Also open the logout page using the system's " +
						"default web browser",
				},
			},
			Action: logout,
		},
	}
	fmt.Println()
	if err := app.Run(os.Args); err != nil {
		fmt.Printf("\n%s\n\n", err)
		os.Exit(1)
	}
	fmt.Println()
}
