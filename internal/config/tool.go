package config

import "brewtracker/internal/units"

// Tool configures brewctl: the database for migrate and the unit system used
// when --system is not given.
type Tool struct {
	Common
	SQLite        SQLite
	DefaultSystem units.System
}

func LoadToolFromEnv() (Tool, error) {
	common, err := loadCommon()
	if err != nil {
		return Tool{}, err
	}
	sqlite, err := loadSQLite()
	if err != nil {
		return Tool{}, err
	}
	system, err := loadSystem()
	if err != nil {
		return Tool{}, err
	}
	return Tool{Common: common, SQLite: sqlite, DefaultSystem: system}, nil
}
