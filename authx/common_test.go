package authx

import (
	"sync"
)

const (
	testUserID   = "u1"
	testTenantID = "t1"
	testLoginURL = "/api/auth/login"
)

// fakeNavigator records navigation requests for later assertions.
type fakeNavigator struct {
	mu         sync.Mutex
	currentURL string
	navigated  []string
}

func (f *fakeNavigator) CurrentURL() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentURL, nil
}

func (f *fakeNavigator) Navigate(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeNavigator) navigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.navigated...)
}
