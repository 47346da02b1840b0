package postgres

import "time"

// Config holds connection settings for the relational store.
type Config struct {
	ConnString string `json:"conn_string,omitempty" yaml:"conn_string,omitempty" mapstructure:"conn_string"`
	Host       string `json:"host,omitempty"        yaml:"host,omitempty"        mapstructure:"host"`
	Port       string `json:"port,omitempty"        yaml:"port,omitempty"        mapstructure:"port"`
	User       string `json:"user,omitempty"        yaml:"user,omitempty"        mapstructure:"user"`
	Password   string `json:"password,omitempty"    yaml:"password,omitempty"    mapstructure:"password"`
	DBName     string `json:"name,omitempty"        yaml:"name,omitempty"        mapstructure:"name"`
	SSLMode    string `json:"ssl_mode,omitempty"    yaml:"ssl_mode,omitempty"    mapstructure:"ssl_mode"`

	MaxConns       int32         `json:"max_conns,omitempty"       yaml:"max_conns,omitempty"       mapstructure:"max_conns"`
	MinConns       int32         `json:"min_conns,omitempty"       yaml:"min_conns,omitempty"       mapstructure:"min_conns"`
	ConnectTimeout time.Duration `json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty" mapstructure:"connect_timeout"`
	PingTimeout    time.Duration `json:"ping_timeout,omitempty"    yaml:"ping_timeout,omitempty"    mapstructure:"ping_timeout"`
}
