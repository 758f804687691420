package bitable

// Config holds configuration for the bitable API client.
type Config struct {
	// BaseURL is the open API root.
	BaseURL string `mapstructure:"base_url" default:"https://open.feishu.cn/open-apis"`
	// AppID is the application id used for the tenant token exchange.
	AppID string `mapstructure:"app_id" default:""`
	// AppSecret is the application secret used for the tenant token exchange.
	AppSecret string `mapstructure:"app_secret" default:""`
	// AppToken identifies the bitable app holding the target table.
	AppToken string `mapstructure:"app_token" default:""`
	// TimeoutSeconds bounds a single HTTP round trip.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MaxAttempts is the retry budget per request.
	MaxAttempts int `mapstructure:"max_attempts" default:"5"`
	// RetryableCodes lists envelope codes treated as transient, comma separated.
	RetryableCodes string `mapstructure:"retryable_codes" default:"9,9999"`
}
