// Package config handles renderer configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// AssetsConfig describes where mesh assets live and how they are baked.
type AssetsConfig struct {
	Dir           string   `yaml:"dir"`
	Meshes        []string `yaml:"meshes"`         // Asset names, each <name>.<geometry_ext> + <name>.<image_ext>
	GeometryExt   string   `yaml:"geometry_ext"`   // Triangulated mesh extension
	ImageExt      string   `yaml:"image_ext"`      // Palette image extension
	PositionScale float32  `yaml:"position_scale"` // Applied before rounding to the voxel grid
	PositionBound int      `yaml:"position_bound"` // Max |coordinate| after scaling, <= 127
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      960,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Assets: AssetsConfig{
			Dir: "assets",
			Meshes: []string{
				"dirt_00",
				"grass_00",
				"player_00",
				"sand_00",
				"tree_00",
				"water_00",
			},
			GeometryExt:   "obj",
			ImageExt:      "png",
			PositionScale: 10,
			PositionBound: 16,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
