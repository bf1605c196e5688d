package lock

import "errors"

// ErrBusy is returned when the player already has a command in flight.
var ErrBusy = errors.New("player has a command in flight")
