package service

// Config defines application settings.
type Config struct {
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8010"`
	Server   string `envconfig:"HTTP_SERVER" default:"nethttp"` // nethttp or fasthttp.

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DocPrefix    string `envconfig:"DOC_PREFIX" default:"/openapi"`
	DocUI        bool   `envconfig:"DOC_UI" default:"true"`
	DocExpansion string `envconfig:"DOC_EXPANSION" default:"list"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS"`

	AdminUser     string `envconfig:"ADMIN_USER" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin"`
}
