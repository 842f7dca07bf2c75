package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ImageFields 提供图片下载日志使用的 group/url 字段。
func ImageFields(action, group, sourceURL string) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"group":  group,
		"url":    sourceURL,
	}
}

// JobFields 提供缩略图任务日志使用的 job/尺寸字段。
func JobFields(action, jobID string, width, height int) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"job_id": jobID,
		"width":  width,
		"height": height,
	}
}
