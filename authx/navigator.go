package authx

import (
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// Navigator abstracts the execution environment's notion of a current
// location and of navigating away from it. In a browser-like host this maps
// to the page URL and a top-level navigation; other hosts can substitute an
// implementation appropriate to their capabilities.
type Navigator interface {
	// CurrentURL returns the URL of the current location, or the empty string
	// if the host has no such notion.
	CurrentURL() (string, error)
	// Navigate sends the user to the specified URL.
	Navigate(url string) error
}

// NopNavigator is a Navigator for hosts with no navigation capability at
// all. It reports no current location and silently discards navigation
// requests.
type NopNavigator struct{}

func (n *NopNavigator) CurrentURL() (string, error) {
	return "", nil
}

func (n *NopNavigator) Navigate(string) error {
	return nil
}

// BrowserNavigator is a Navigator that opens URLs using the system's default
// web browser.
type BrowserNavigator struct{}

func (b *BrowserNavigator) CurrentURL() (string, error) {
	return "", nil
}

func (b *BrowserNavigator) Navigate(url string) error {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command(
			"rundll32",
			"url.dll,FileProtocolHandler",
			url,
		).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = errors.New("unsupported OS")
	}
	return errors.Wrapf(
		err,
		"error opening %s using the system's default web browser",
		url,
	)
}
