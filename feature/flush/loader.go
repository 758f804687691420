package flush

import "github.com/gofiber/fiber/v2"

// Feature exposes the sync service over HTTP.
type Feature struct {
	handler *Handler
}

// NewFeature creates the sync feature around svc.
func NewFeature(svc *Service) *Feature {
	return &Feature{handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "flush"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
