package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 20
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/lessonforge/data/lessons.db"
	}
	if cfg.Content.Backend == "" {
		cfg.Content.Backend = "local"
	}
	if cfg.Content.Directory == "" {
		cfg.Content.Directory = "/usr/local/var/lessonforge/uploads"
	}
	if cfg.Content.StaticPrefix == "" {
		cfg.Content.StaticPrefix = "/uploads"
	}
	if cfg.Completion.Provider == "" {
		cfg.Completion.Provider = "openai"
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "gpt-4"
	}
	if cfg.Completion.Temperature == 0 {
		cfg.Completion.Temperature = 0.4
	}
	if cfg.Completion.TimeoutSeconds == 0 {
		cfg.Completion.TimeoutSeconds = 120
	}
	if cfg.Completion.MaxAttempts == 0 {
		cfg.Completion.MaxAttempts = 3
	}
	if cfg.Prompt.MaxChars == 0 {
		cfg.Prompt.MaxChars = 3000
	}
}
