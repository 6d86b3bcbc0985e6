// Package config는 서비스 설정 파일과 환경 변수를 읽어들이는 공통 로더입니다.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config는 로드된 설정 값에 대한 읽기 전용 접근을 제공합니다.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	IsSet(key string) bool
	// Unmarshal은 전체 설정을 구조체로 디코딩합니다 (mapstructure 태그 사용).
	Unmarshal(out interface{}) error
	GetAll() map[string]interface{}
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *viperConfig) GetInt64(key string) int64            { return c.v.GetInt64(key) }
func (c *viperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *viperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *viperConfig) GetStringSlice(key string) []string   { return c.v.GetStringSlice(key) }
func (c *viperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }
func (c *viperConfig) GetAll() map[string]interface{}       { return c.v.AllSettings() }
func (c *viperConfig) Unmarshal(out interface{}) error      { return c.v.Unmarshal(out) }

// 설정 디렉토리 기본 경로
const configDir = "configs"

// Option은 Load 동작을 조정합니다.
type Option func(v *viper.Viper)

// WithDefaults는 설정 파일에 없는 키의 기본값을 지정합니다.
func WithDefaults(defaults map[string]interface{}) Option {
	return func(v *viper.Viper) {
		for key, value := range defaults {
			v.SetDefault(key, value)
		}
	}
}

// Load는 서비스 이름에 해당하는 설정 파일을 읽습니다.
//
// 탐색 순서: $CONFIG_PATH(파일 또는 디렉토리) → configs/{APP_ENV}/ → configs/example/.
// 환경 변수는 {SERVICE}_{SECTION}_{KEY} 형식으로 파일 값을 덮어씁니다.
func Load(serviceName string, opts ...Option) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		opt(v)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	// CONFIG_PATH가 파일을 가리키면 그대로 사용
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("설정 파일 로드 실패 (%s): %w", configPath, err)
			}
			return &viperConfig{v: v}, nil
		}
		v.AddConfigPath(configPath)
	}

	v.SetConfigName(serviceName)
	v.AddConfigPath(filepath.Join(configDir, env))

	if err := v.ReadInConfig(); err != nil {
		// configs/example 디렉토리의 예제 설정으로 재시도
		v.AddConfigPath(filepath.Join(configDir, "example"))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
		}
	}

	return &viperConfig{v: v}, nil
}
