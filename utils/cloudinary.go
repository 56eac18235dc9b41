package utils

import (
	"fmt"

	"meramarket/config"

	"github.com/cloudinary/cloudinary-go/v2"
)

// NewCloudinary builds a Cloudinary client from typed configuration.
func NewCloudinary(cfg config.CloudinaryConfig) (*cloudinary.Cloudinary, error) {
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		return nil, fmt.Errorf("cloudinary credentials not set: %v", missing)
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("utils.NewCloudinary: failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return cld, nil
}
