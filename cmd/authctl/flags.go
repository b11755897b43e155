package main

import "github.com/urfave/cli"

const (
	flagBrowse      = "browse"
	flagsBrowse     = "browse, b"
	flagDebug       = "debug"
	flagsDebug      = "debug, d"
	flagLoginURL    = "login-url"
	flagsLoginURL   = "login-url"
	flagLogoutURL   = "logout-url"
	flagsLogoutURL  = "logout-url"
	flagOutput      = "output"
	flagsOutput     = "output, o"
	flagSessionURL  = "session-url"
	flagsSessionURL = "session-url"
	flagTokenURL    = "token-url"
	flagsTokenURL   = "token-url"
)

var (
	cliFlagOutput = cli.StringFlag{
		Name:  flagsOutput,
		Usage: "Return output in another format. Supported formats: table, json",
		Value: "table",
	}
	cliFlagSessionURL = cli.StringFlag{
		Name:  flagsSessionURL,
		Usage: "The absolute URL of the session endpoint",
	}
	cliFlagTokenURL = cli.StringFlag{
		Name:  flagsTokenURL,
		Usage: "The absolute URL of the token endpoint",
	}
	cliFlagLoginURL = cli.StringFlag{
		Name:  flagsLoginURL,
		Usage: "The URL of the login page",
	}
	cliFlagLogoutURL = cli.StringFlag{
		Name:  flagsLogoutURL,
		Usage: "The URL of the logout page",
	}
)
