package model

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root structure loaded from the truck YAML configuration.
// Every field has a default; an empty config path yields DefaultConfig().
type Config struct {
	Filter  FilterConfig  `yaml:"filter"`
	Timing  TimingConfig  `yaml:"timing"`
	PID     PIDSetConfig  `yaml:"pid"`
	Vehicle VehicleConfig `yaml:"vehicle"`
	Noise   NoiseConfig   `yaml:"noise"`
	Faults  FaultConfig   `yaml:"faults"`
	Route   RouteConfig   `yaml:"route"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Log     LogConfig     `yaml:"log"`
	Monitor MonitorConfig `yaml:"monitor"`
	Console ConsoleConfig `yaml:"console"`
}

// FilterConfig parametrizes the sensor moving-average filters and the
// filtered-sample ring buffer.
type FilterConfig struct {
	Window     int `yaml:"window"`      // samples per channel (M)
	BufferSize int `yaml:"buffer_size"` // circular buffer capacity
}

// TimingConfig holds the task periods in milliseconds.
type TimingConfig struct {
	SimPeriodMs    int `yaml:"sim_period_ms"`
	SensorPeriodMs int `yaml:"sensor_period_ms"`
	LogicPeriodMs  int `yaml:"logic_period_ms"`
	NavPeriodMs    int `yaml:"nav_period_ms"`
	RoutePeriodMs  int `yaml:"route_period_ms"`
	FaultPeriodMs  int `yaml:"fault_period_ms"`
	LogPeriodMs    int `yaml:"log_period_ms"`
}

// PIDConfig holds the gains and output saturation of one PID controller.
type PIDConfig struct {
	Kp  float64 `yaml:"kp"`
	Ki  float64 `yaml:"ki"`
	Kd  float64 `yaml:"kd"`
	Sat float64 `yaml:"sat"` // symmetric output limit (+/-)
}

// PIDSetConfig holds both navigation controllers.
type PIDSetConfig struct {
	Linear  PIDConfig `yaml:"linear"`
	Angular PIDConfig `yaml:"angular"`
}

// VehicleConfig holds the physical parameters of the simulated truck.
type VehicleConfig struct {
	MaxVelocity        float64 `yaml:"max_velocity"`         // m/s
	MaxAngularVelocity float64 `yaml:"max_angular_velocity"` // rad/s
	Tau                float64 `yaml:"tau"`                  // s, first-order lag
	AllowReverse       bool    `yaml:"allow_reverse"`
	InitialX           float64 `yaml:"initial_x"`
	InitialY           float64 `yaml:"initial_y"`
	InitialTheta       float64 `yaml:"initial_theta"`
}

// NoiseConfig holds per-channel sensor noise standard deviations.
type NoiseConfig struct {
	PositionXY  float64 `yaml:"position_xy"` // m
	Theta       float64 `yaml:"theta"`       // rad
	Velocity    float64 `yaml:"velocity"`    // m/s
	Temperature float64 `yaml:"temperature"` // deg C
	Disable     bool    `yaml:"disable"`
}

// FaultConfig holds fault-monitor thresholds and injection probability.
type FaultConfig struct {
	TempWarn    float64 `yaml:"temp_warn"`    // deg C
	TempCrit    float64 `yaml:"temp_crit"`    // deg C
	Probability float64 `yaml:"probability"`  // per-tick Bernoulli p
	Seed        int64   `yaml:"seed"`         // 0 = time-seeded
}

// RouteConfig holds route-planner parameters.
type RouteConfig struct {
	AcceptRadius   float64 `yaml:"accept_radius"`   // m
	CruiseVelocity float64 `yaml:"cruise_velocity"` // m/s
	HeadingGain    float64 `yaml:"heading_gain"`    // rad/s per rad of error
}

// MQTTConfig holds the messaging adapter settings.
type MQTTConfig struct {
	Broker       string `yaml:"broker"`   // e.g. tcp://localhost:1883
	QoS          byte   `yaml:"qos"`
	QueueSize    int    `yaml:"queue_size"` // bound of the inbound command queue
	PublishPerMs int    `yaml:"publish_period_ms"`
}

// LogConfig holds the telemetry sink settings.
type LogConfig struct {
	Dir string `yaml:"dir"` // directory for truck_{T}.csv and truck_{T}.db
}

// MonitorConfig holds the local websocket monitor settings.
type MonitorConfig struct {
	Addr    string `yaml:"addr"` // e.g. ":8080"; empty disables the monitor
	Enabled bool   `yaml:"enabled"`
}

// ConsoleConfig holds the serial operator console settings.
type ConsoleConfig struct {
	Device string `yaml:"device"` // serial device path; empty disables
	Baud   int    `yaml:"baud"`
}

// DefaultConfig returns the built-in defaults for every option.
func DefaultConfig() Config {
	return Config{
		Filter: FilterConfig{Window: 5, BufferSize: 100},
		Timing: TimingConfig{
			SimPeriodMs:    50,
			SensorPeriodMs: 100,
			LogicPeriodMs:  100,
			NavPeriodMs:    50,
			RoutePeriodMs:  500,
			FaultPeriodMs:  500,
			LogPeriodMs:    1000,
		},
		PID: PIDSetConfig{
			Linear:  PIDConfig{Kp: 0.5, Ki: 0.1, Kd: 0.05, Sat: 10.0},
			Angular: PIDConfig{Kp: 1.0, Ki: 0.05, Kd: 0.2, Sat: 1.0},
		},
		Vehicle: VehicleConfig{
			MaxVelocity:        10.0,
			MaxAngularVelocity: 1.0,
			Tau:                0.5,
		},
		Noise: NoiseConfig{
			PositionXY:  0.1,
			Theta:       0.01,
			Velocity:    0.05,
			Temperature: 0.2,
		},
		Faults: FaultConfig{TempWarn: 95.0, TempCrit: 120.0, Probability: 1e-3},
		Route:  RouteConfig{AcceptRadius: 2.0, CruiseVelocity: 5.0, HeadingGain: 1.0},
		MQTT:   MQTTConfig{Broker: "tcp://localhost:1883", QoS: 1, QueueSize: 32, PublishPerMs: 100},
		Log:    LogConfig{Dir: "data/logs"},
		Monitor: MonitorConfig{Addr: ":8080"},
		Console: ConsoleConfig{Baud: 9600},
	}
}

// LoadConfig reads the YAML configuration at path on top of the defaults.
// An empty path returns pure defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Period converts a millisecond field to a time.Duration.
func Period(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }
