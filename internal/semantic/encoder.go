package semantic

import (
	"fmt"
	"time"

	"faq_scrap/internal/config"
)

// NewEncoder builds the encoder selected by cfg.Kind.
func NewEncoder(cfg config.Encoder) (Encoder, error) {
	switch cfg.Kind {
	case "", config.EncoderHash:
		return NewHashEncoder(cfg.Dimensions), nil
	case config.EncoderHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("encoder kind %q requires an endpoint", cfg.Kind)
		}
		return NewHTTPEncoder(cfg.Endpoint, cfg.Model, cfg.APIKey, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown encoder kind: %s", cfg.Kind)
	}
}
