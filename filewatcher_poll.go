//go:build !linux && !darwin

package main

import "time"

func newChangeSource() (changeSource, error) {
	return newPollSource(500 * time.Millisecond), nil
}
