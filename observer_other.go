//go:build !linux && !windows && (!darwin || !cgo)
// +build !linux
// +build !windows
// +build !darwin !cgo

package clipstream

import "errors"

func newPlatformObserver(*observerConfig) (observer, error) {
	return nil, errors.New("clipboard observation is not supported on this platform")
}
