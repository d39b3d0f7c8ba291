// internal/config/normalize.go
package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = DefaultListen
	}

	for i := range cfg.Devices {
		d := &cfg.Devices[i]

		if d.Port == 0 {
			d.Port = DefaultPort
		}

		// 0 means "not set"; anything else is floored
		switch {
		case d.RefreshIntervalS == 0:
			d.RefreshIntervalS = DefaultRefreshIntervalS
		case d.RefreshIntervalS < MinRefreshIntervalS:
			d.RefreshIntervalS = MinRefreshIntervalS
		}

		if d.Name == "" {
			d.Name = d.ID
		}
		// ASCII already validated
		if len(d.Name) > MaxDeviceNameLen {
			d.Name = d.Name[:MaxDeviceNameLen]
		}

		if d.Mirror != nil && d.Mirror.TimeoutMs <= 0 {
			d.Mirror.TimeoutMs = DefaultMirrorTimeoutMs
		}
	}
}
