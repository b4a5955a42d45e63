package internal

import (
	"github.com/dmitrymomot/anvil/pkg/router"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// DefaultPort is the stock listen port.
const DefaultPort = 8360

// defaultConfig is the base layer under config/config.* files.
func defaultConfig() map[string]any {
	ro := router.DefaultOptions()
	return map[string]any{
		"port":                 DefaultPort,
		"host":                 "",
		"startServerTimeout":   DefaultStartServerTimeout.Milliseconds(),
		"processKillTimeout":   DefaultProcessKillTimeout.Milliseconds(),
		"jsonContentType":      "application/json",
		"errnoField":           "errno",
		"errmsgField":          "errmsg",
		"defaultErrno":         1000,
		"validateDefaultErrno": 1001,
		"poweredBy":            "anvil",
		"router": map[string]any{
			"defaultController":      ro.DefaultController,
			"defaultAction":          ro.DefaultAction,
			"enableDefaultRouter":    ro.EnableDefaultRouter,
			"optimizeHomepageRouter": ro.OptimizeHomepageRouter,
		},
		"health": map[string]any{
			"enable":        true,
			"livenessPath":  "/health/live",
			"readinessPath": "/health/ready",
		},
		"metrics": map[string]any{
			"enable":    false,
			"path":      "/metrics",
			"namespace": "anvil",
		},
	}
}

// defaultAdapters is the base layer under config/adapter.* files.
func defaultAdapters() map[string]any {
	return map[string]any{
		"logger": map[string]any{
			"type":    "console",
			"console": map[string]any{"level": "info"},
		},
		"cache": map[string]any{
			"type":   "memory",
			"common": map[string]any{"timeout": 24 * 3600 * 1000},
			"memory": map[string]any{},
		},
	}
}
