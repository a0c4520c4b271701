package notify

import (
	"github.com/sirupsen/logrus"
)

// LogDispatcher 把通知写入结构化日志的分发器
// 邮件等外部投递通道由部署方接入,本服务默认只记录分发事件
type LogDispatcher struct {
	logger   *logrus.Logger
	registry *Registry
}

// NewLogDispatcher 创建日志分发器
func NewLogDispatcher(logger *logrus.Logger, registry *Registry) *LogDispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	return &LogDispatcher{
		logger:   logger,
		registry: registry,
	}
}

// Send 渲染模板并记录一条通知日志
func (d *LogDispatcher) Send(templateKey string, recipient string, vars map[string]string) bool {
	subject, body, ok := d.registry.Render(templateKey, vars)
	if !ok {
		d.logger.WithFields(logrus.Fields{
			"template":  templateKey,
			"recipient": recipient,
		}).Warn("unknown notification template")
		return false
	}

	d.logger.WithFields(logrus.Fields{
		"template":  templateKey,
		"recipient": recipient,
		"subject":   subject,
		"body":      body,
	}).Info("notification dispatched")
	return true
}
