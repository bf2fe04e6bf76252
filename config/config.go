// server/config/config.go
package config

import (
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type FCMConfig struct {
	CredentialsFile string `mapstructure:"credentialsFile"`
}

type RoutingConfig struct {
	OSRMBaseURL string `mapstructure:"osrmBaseURL"`
}

// DispatchConfig gom các tham số điều chỉnh của luồng điều phối.
type DispatchConfig struct {
	RadiusMeters    float64       `mapstructure:"radiusMeters"`
	FreshnessWindow time.Duration `mapstructure:"freshnessWindow"`
	StaleThreshold  time.Duration `mapstructure:"staleThreshold"`
	SweeperInterval time.Duration `mapstructure:"sweeperInterval"`
	QuoteTTL        time.Duration `mapstructure:"quoteTTL"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	S3       S3Config       `mapstructure:"s3"`
	FCM      FCMConfig      `mapstructure:"fcm"`
	Routing  RoutingConfig  `mapstructure:"routing"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
}

// LoadConfig đọc cấu hình từ file và ghi đè bằng các biến môi trường.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	viper.BindEnv("s3.bucket", "S3_BUCKET")
	viper.BindEnv("s3.region", "S3_REGION")
	viper.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	viper.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	viper.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	viper.BindEnv("fcm.credentialsFile", "FCM_CREDENTIALS_FILE")
	viper.BindEnv("routing.osrmBaseURL", "OSRM_BASE_URL")

	// Defaults cho các tham số dispatch; file YAML có thể ghi đè.
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("dispatch.radiusMeters", 8000.0)
	viper.SetDefault("dispatch.freshnessWindow", 15*time.Minute)
	viper.SetDefault("dispatch.staleThreshold", 2*time.Minute)
	viper.SetDefault("dispatch.sweeperInterval", 2*time.Minute)
	viper.SetDefault("dispatch.quoteTTL", 24*time.Hour)

	// Nếu file không tồn tại, Viper sẽ chỉ sử dụng các biến môi trường.
	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return
}
