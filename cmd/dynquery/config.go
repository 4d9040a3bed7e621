/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tomoncle/dynquery/database"
)

const defaultConfigName = "dynquery"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AppConfig is the CLI configuration file.
type AppConfig struct {
	Log      LogConfig       `mapstructure:"log"`
	Database database.Config `mapstructure:"database"`
}

var _ database.AbstractDatabaseConfigProvider = (*AppConfig)(nil)

func (c *AppConfig) ConfigLoader() *database.Config {
	return &c.Database
}

// LoadConfig reads path, or ./dynquery.yaml when path is empty, then applies
// DYNQUERY_* environment overrides. A missing default file is not an error.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DYNQUERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := database.DefaultConnectionConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.connection.type", def.Type)
	v.SetDefault("database.connection.host", "")
	v.SetDefault("database.connection.port", 0)
	v.SetDefault("database.connection.username", "")
	v.SetDefault("database.connection.password", "")
	v.SetDefault("database.connection.dbname", def.DBName)
	v.SetDefault("database.connection.sslmode", "")
	v.SetDefault("database.connection.max_idle_conns", def.MaxIdleConns)
	v.SetDefault("database.connection.max_open_conns", def.MaxOpenConns)
	v.SetDefault("database.connection.conn_max_lifetime", def.ConnMaxLifetime)
	v.SetDefault("database.connection.conn_max_idle_time", def.ConnMaxIdleTime)
	v.SetDefault("database.connection.connect_timeout", def.ConnectTimeout)
	v.SetDefault("database.connection.read_timeout", def.ReadTimeout)
	v.SetDefault("database.connection.write_timeout", def.WriteTimeout)
	v.SetDefault("database.connection.enable_reconnect", def.EnableReconnect)
	v.SetDefault("database.connection.reconnect_interval", def.ReconnectInterval)
	v.SetDefault("database.connection.max_reconnect_tries", def.MaxReconnectTries)
	// a CLI run is too short for a background health check
	v.SetDefault("database.connection.health_check_interval", time.Duration(0))
	v.SetDefault("database.connection.enable_query_log", false)
	v.SetDefault("database.connection.slow_query_time", def.SlowQueryTime)
	v.SetDefault("database.connection.enable_metrics", false)

	v.SetDefault("database.schema.create_on_startup", false)
	v.SetDefault("database.schema.with_foreign_keys", true)
}
