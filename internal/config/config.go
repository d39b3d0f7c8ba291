// internal/config/config.go
package config

type Config struct {
	LogLevel string         `yaml:"log_level"`
	HTTP     HTTPConfig     `yaml:"http"`
	Devices  []DeviceConfig `yaml:"devices"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"` // mirrored into the status block, defaults to id
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	RefreshIntervalS int    `yaml:"refresh_interval_s"`
	LocalPort        int    `yaml:"local_port"` // 0 = ephemeral

	// Modbus status mirror (optional, opt-in)
	Mirror *MirrorConfig `yaml:"mirror"`
}

// ---- MIRROR ----

type MirrorConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Defaults applied by Normalize.
const (
	DefaultPort             = 30000
	DefaultRefreshIntervalS = 60
	MinRefreshIntervalS     = 1
	DefaultListen           = ":8080"
	DefaultLogLevel         = "info"
	DefaultMirrorTimeoutMs  = 2000
	MaxDeviceNameLen        = 16
)
