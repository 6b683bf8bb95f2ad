package config

import (
	"fmt"
	"time"
)

// Config is the root configuration of the scoring worker manager.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Scoring  ScoringConfig           `mapstructure:"scoring"`
	Events   EventsConfig            `mapstructure:"events"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Server   ServerConfig            `mapstructure:"server"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	Plaintext      bool   `mapstructure:"plaintext"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ElasticsearchConfig is optional: with no addresses the score index is disabled.
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

func (e ElasticsearchConfig) Enabled() bool {
	for _, a := range e.Addresses {
		if a != "" {
			return true
		}
	}
	return false
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// WorkerConfig holds the job-worker knobs shared by every task type.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // job retries handed to the broker
}

// ScoringConfig carries the aggregation weights and the tagging of persisted scores.
type ScoringConfig struct {
	Version          string     `mapstructure:"version" validate:"required"`
	ProfileWeight    float64    `mapstructure:"profile_weight" validate:"gt=0,lte=1"`
	InterviewWeight  float64    `mapstructure:"interview_weight" validate:"gte=0,lte=1"`
	AssessmentWeight float64    `mapstructure:"assessment_weight" validate:"gte=0,lte=1"`
	NoInterview      WeightPair `mapstructure:"no_interview"`
	NoAssessment     WeightPair `mapstructure:"no_assessment"`
	GateCap          int        `mapstructure:"gate_cap" validate:"gte=0,lte=100"`
	CacheTTL         int        `mapstructure:"cache_ttl"` // seconds
	PipelineStatuses []string   `mapstructure:"pipeline_statuses" validate:"min=1,dive,required"`
}

// WeightPair is a two-way split used when one sub-score is missing.
type WeightPair struct {
	Primary   float64 `mapstructure:"primary" validate:"gt=0,lte=1"`
	Secondary float64 `mapstructure:"secondary" validate:"gte=0,lte=1"`
}

func (s ScoringConfig) CacheTTLDuration() time.Duration {
	return time.Duration(s.CacheTTL) * time.Second
}

// EventsConfig drives the SNS score-updated publisher. An empty topic disables publishing.
type EventsConfig struct {
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

func (e EventsConfig) Enabled() bool {
	return e.TopicARN != ""
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}
