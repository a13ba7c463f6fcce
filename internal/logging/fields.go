package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供字体地址与选择器字段，供 glyph 请求日志复用。
func RequestFields(fontURL, selectorKind, selectorValue string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"font_url":       fontURL,
		"selector_kind":  selectorKind,
		"selector_value": selectorValue,
		"cache_hit":      cacheHit,
	}
}
