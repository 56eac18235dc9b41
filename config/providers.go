package config

// FirebaseConfig is the Firebase project configuration shared by the
// firebase auth, firestore data and firebase storage providers.
type FirebaseConfig struct {
	APIKey            string
	AuthDomain        string
	ProjectID         string
	StorageBucket     string
	MessagingSenderID string
	AppID             string
	CredentialsFile   string
}

// MissingKeys returns the environment keys whose values are empty.
// CredentialsFile is optional: application default credentials are used
// when it is not set.
func (c FirebaseConfig) MissingKeys() []string {
	return missing(
		key{"FB_API_KEY", c.APIKey},
		key{"FB_AUTH_DOMAIN", c.AuthDomain},
		key{"FB_PROJECT_ID", c.ProjectID},
		key{"FB_STORAGE_BUCKET", c.StorageBucket},
		key{"FB_MESSAGING_SENDER_ID", c.MessagingSenderID},
		key{"FB_APP_ID", c.AppID},
	)
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

func (c RazorpayConfig) MissingKeys() []string {
	return missing(
		key{"RAZORPAY_KEY_ID", c.KeyID},
		key{"RAZORPAY_KEY_SECRET", c.KeySecret},
	)
}

type StripeConfig struct {
	SecretKey string
}

func (c StripeConfig) MissingKeys() []string {
	return missing(key{"STRIPE_KEY", c.SecretKey})
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

func (c CloudinaryConfig) MissingKeys() []string {
	return missing(
		key{"CLOUDINARY_CLOUD_NAME", c.CloudName},
		key{"CLOUDINARY_API_KEY", c.APIKey},
		key{"CLOUDINARY_API_SECRET", c.APISecret},
	)
}

type MongoConfig struct {
	URL      string
	Database string
}

func (c MongoConfig) MissingKeys() []string {
	return missing(
		key{"DATABASE_URL", c.URL},
		key{"DATABASE_NAME", c.Database},
	)
}

// GeoConfig has no required keys; the lookup endpoint falls back to ipapi.
type GeoConfig struct {
	IPEndpoint string
}

func (c GeoConfig) MissingKeys() []string {
	return nil
}

// NoKeys is the requirement of providers that need no configuration.
type NoKeys struct{}

func (NoKeys) MissingKeys() []string { return nil }

func (c *Config) Firebase() FirebaseConfig {
	return FirebaseConfig{
		APIKey:            c.FirebaseAPIKey,
		AuthDomain:        c.FirebaseAuthDomain,
		ProjectID:         c.FirebaseProjectID,
		StorageBucket:     c.FirebaseStorageBucket,
		MessagingSenderID: c.FirebaseMessagingSenderID,
		AppID:             c.FirebaseAppID,
		CredentialsFile:   c.FirebaseCredentialsFile,
	}
}

func (c *Config) Razorpay() RazorpayConfig {
	return RazorpayConfig{KeyID: c.RazorpayKeyID, KeySecret: c.RazorpayKeySecret}
}

func (c *Config) Stripe() StripeConfig {
	return StripeConfig{SecretKey: c.StripeKey}
}

func (c *Config) Cloudinary() CloudinaryConfig {
	return CloudinaryConfig{
		CloudName: c.CloudinaryCloudName,
		APIKey:    c.CloudinaryAPIKey,
		APISecret: c.CloudinaryAPISecret,
	}
}

func (c *Config) Mongo() MongoConfig {
	return MongoConfig{URL: c.DatabaseURL, Database: c.DatabaseName}
}

func (c *Config) Geo() GeoConfig {
	return GeoConfig{IPEndpoint: c.GeoIPEndpoint}
}

type key struct {
	name  string
	value string
}

func missing(keys ...key) []string {
	var out []string
	for _, k := range keys {
		if k.value == "" {
			out = append(out, k.name)
		}
	}
	return out
}
