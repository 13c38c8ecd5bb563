package config

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// ProductionLike returns true when running in staging or production.
func (c *RunConfig) ProductionLike() bool {
	return c.Environment == EnvStaging || c.Environment == EnvProduction
}
