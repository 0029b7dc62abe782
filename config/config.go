package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	API     API
	Attempt Attempt
}

type API struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Attempt identifies the test the reference runner opens: a test reached
// through a lesson within a course.
type Attempt struct {
	TestID   string
	LessonID string
	CourseID string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 15)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.API.BaseURL = viper.GetString("API_BASE_URL")
	config.API.Token = viper.GetString("API_TOKEN")
	config.API.Timeout = time.Duration(viper.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second

	config.Attempt.TestID = viper.GetString("TEST_ID")
	config.Attempt.LessonID = viper.GetString("LESSON_ID")
	config.Attempt.CourseID = viper.GetString("COURSE_ID")

	log.Info().Str("baseURL", config.API.BaseURL).Dur("timeout", config.API.Timeout).Msg("Config loaded")
	return &config, nil
}
