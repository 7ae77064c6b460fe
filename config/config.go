package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	JWT      JWT
	Mail     Mail
	Upload   Upload
	Blast    Blast

	// Base URL public clients reach the service on; used in QR payloads and
	// email links.
	PublicBaseURL string
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWT struct {
	Secret   string
	TTLHours int
}

// Mail holds settings for both providers; Provider picks which one is built
// at startup ("smtp" or "resend").
type Mail struct {
	Provider     string
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	ResendAPIKey string
}

type Upload struct {
	Dir string
}

type Blast struct {
	// Pause between individual sends of a blast, in milliseconds.
	SendIntervalMS int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("JWT_TTL_HOURS", 24)
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("BLAST_SEND_INTERVAL_MS", 200)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.JWT.Secret = viper.GetString("JWT_SECRET")
	config.JWT.TTLHours = viper.GetInt("JWT_TTL_HOURS")

	config.Mail.Provider = viper.GetString("MAIL_PROVIDER")
	config.Mail.From = viper.GetString("MAIL_FROM")
	config.Mail.SMTPHost = viper.GetString("SMTP_HOST")
	config.Mail.SMTPPort = viper.GetInt("SMTP_PORT")
	config.Mail.SMTPUser = viper.GetString("SMTP_USERNAME")
	config.Mail.SMTPPassword = viper.GetString("SMTP_PASSWORD")
	config.Mail.ResendAPIKey = viper.GetString("RESEND_API_KEY")

	config.Upload.Dir = viper.GetString("UPLOAD_DIR")
	config.Blast.SendIntervalMS = viper.GetInt("BLAST_SEND_INTERVAL_MS")
	config.PublicBaseURL = viper.GetString("PUBLIC_BASE_URL")

	log.Info().Str("port", config.Server.Port).Str("mail_provider", config.Mail.Provider).Msg("Config loaded")
	return &config, nil
}
