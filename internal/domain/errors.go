package domain

import "errors"

// Error kinds shared by adapters and the pipeline. Adapters wrap them with context.
var (
	ErrFetch     = errors.New("fetch failed")
	ErrExtract   = errors.New("expected page structure missing")
	ErrTransform = errors.New("text transform failed")
	ErrDelivery  = errors.New("delivery failed")
	ErrConfig    = errors.New("invalid schedule configuration")
)
