package touch

import "errors"

var (
	// ErrPaletteExhausted is returned when every palette color is held by a pointer
	ErrPaletteExhausted = errors.New("palette exhausted")

	// ErrResolveOnEmpty is the panic value when a resolver is handed no pointers
	ErrResolveOnEmpty = errors.New("resolve on empty pointer set")

	// ErrInvalidGroupCount is returned for group counts outside 2..4
	ErrInvalidGroupCount = errors.New("invalid group count")

	ErrUnknownMode    = errors.New("unknown mode")
	ErrSessionClosed  = errors.New("session closed")
	ErrInvalidSurface = errors.New("invalid surface size")
	ErrInvalidPalette = errors.New("invalid palette")
)
