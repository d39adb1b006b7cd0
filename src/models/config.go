package models

// MConfig Structure
type MConfig struct {
	Name        string         `yaml:"name"`
	LogLevel    string         `yaml:"log_level"`
	LogFile     string         `yaml:"log_file"`
	CalendarMIC string         `yaml:"calendar_mic"`
	Gateway     MGatewayConfig `yaml:"gateway"`
	Storage     MStorageConfig `yaml:"storage"`
	Relay       MRelayConfig   `yaml:"relay"`
}

type MGatewayConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	ClientID       int32  `yaml:"client_id"`
	ConnectTimeout int    `yaml:"connect_timeout"` // seconds
	MaxRetries     int    `yaml:"retries"`
	ChannelBuffer  int    `yaml:"channel_buffer"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MRelayConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}
