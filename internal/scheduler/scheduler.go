package scheduler

import (
	"strconv"
	"strings"
	"time"

	"OpenLens-Chain/internal/config"
)

// 运行时开关名称。取值来自配置文件 settings 段或同名环境变量。
const (
	settingDryRun       = "LENS_DRY_RUN"
	settingPollInterval = "LENS_POLL_INTERVAL"
)

// dryRunEnabled 判断是否处于试运行模式。试运行下生成照常执行，
// 但不向网络提交任何发布。
func dryRunEnabled(lookup config.SettingLookup) bool {
	if lookup == nil {
		return false
	}
	value, ok := lookup(settingDryRun)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// pollInterval 返回提及轮询间隔，默认 120 秒。
func pollInterval(lookup config.SettingLookup) time.Duration {
	const fallback = 120 * time.Second
	if lookup == nil {
		return fallback
	}
	value, ok := lookup(settingPollInterval)
	if !ok {
		return fallback
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
