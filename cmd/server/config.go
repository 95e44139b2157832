package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=3000"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	StoreDriver          string        `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/badger"`
	SQLiteFilepath       string        `env:"SQLITE_FILEPATH,default=./data/chat.db"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,default=./data/bluge"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=5s"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=4096"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
	TimelineCapacity     int           `env:"TIMELINE_CAPACITY,default=50"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharReplacement,
		)
	}
	return r[0], nil
}
