package service

import (
	"errors"

	"github.com/wricardo/rps-game/game/access"
)

var (
	ErrUnauthorized           = access.ErrUnauthorized
	ErrHostAddressBlacklisted = errors.New("the host address is blacklisted")
	ErrOnlyOneGameAtATime     = errors.New("only one game can be played with the same opponent at one time")
	ErrGameNotFound           = errors.New("game not found")

	ErrAlreadyInstantiated = errors.New("already instantiated")
	ErrNotInstantiated     = errors.New("not instantiated")
	ErrUnknownMessage      = errors.New("unknown message")
)
