/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/stretchr/testify/require"
)

// RequireNoErrorInChannel asserts that there is no error in buffered channel.
// It doesn't block if the channel is empty.
func RequireNoErrorInChannel(t require.TestingT, c <-chan error, msgAndArgs ...interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.NoError(t, receiveError(c), msgAndArgs...)
}

// RequireErrorInChannel asserts that there is a non-nil error in buffered channel and returns it.
// It's used for checking fatal errors reported by service units. It doesn't block if the channel is empty.
func RequireErrorInChannel(t require.TestingT, c <-chan error, msgAndArgs ...interface{}) error {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	err := receiveError(c)
	require.Error(t, err, msgAndArgs...)
	return err
}

func receiveError(c <-chan error) error {
	select {
	case err := <-c:
		return err
	default:
		return nil
	}
}
