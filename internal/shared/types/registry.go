package types

// Registration is the metadata an application is loaded with
type Registration struct {
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Description string  `json:"description" yaml:"description" toml:"description"`
	Call        string  `json:"call" yaml:"call" toml:"call"`
	Term        string  `json:"term" yaml:"term" toml:"term"`
	Type        AppType `json:"type" yaml:"type" toml:"type"`
	AutoStart   bool    `json:"autostart" yaml:"autostart" toml:"autostart"`
	SystemApp   bool    `json:"system_app" yaml:"systemApp" toml:"systemApp"`
}
