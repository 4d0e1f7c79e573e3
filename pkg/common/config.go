package common

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// ConfigPathEnv points at a yaml or json file layered over the defaults
	ConfigPathEnv = "CONFIG_PATH"
	// ConfigJSONEnv holds a raw JSON document layered over everything else
	ConfigJSONEnv = "CONFIG_JSON"
)

//go:embed config.default.yaml
var defaultConfig []byte

type ConfigManager[T any] struct {
	kf     *koanf.Koanf
	config T
}

func NewConfigManager[T any]() (*ConfigManager[T], error) {
	cm := &ConfigManager[T]{kf: koanf.New(".")}

	if err := cm.kf.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path := os.Getenv(ConfigPathEnv); path != "" {
		var parser koanf.Parser = yaml.Parser()
		if strings.EqualFold(filepath.Ext(path), ".json") {
			parser = json.Parser()
		}
		if err := cm.kf.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if raw := os.Getenv(ConfigJSONEnv); raw != "" {
		if err := cm.kf.Load(rawbytes.Provider([]byte(raw)), json.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", ConfigJSONEnv, err)
		}
	}

	if err := cm.unmarshal(); err != nil {
		return nil, err
	}

	return cm, nil
}

func (cm *ConfigManager[T]) unmarshal() error {
	var config T
	err := cm.kf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "key",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &config,
			TagName:          "key",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	cm.config = config
	return nil
}

func (cm *ConfigManager[T]) GetConfig() T {
	return cm.config
}

// Print returns the merged configuration as a flat key listing
func (cm *ConfigManager[T]) Print() string {
	return cm.kf.Sprint()
}
