package notify

import "strings"

// Template 通知模板,主题与正文使用 {placeholder} 形式的占位符
type Template struct {
	Subject string
	Body    string
}

// 默认模板,可通过配置覆盖
var defaultTemplates = map[string]Template{
	TemplateAskForReview: {
		Subject: "Review requested: {post_title}",
		Body:    "Hi {recipient}, {assignee} has asked you to review \"{post_title}\" by {post_author}: {post_link}",
	},
	TemplateApproveReview: {
		Subject: "Review approved: {post_title}",
		Body:    "Hi {assignee}, your review request for \"{post_title}\" has been approved: {post_link}",
	},
	TemplateFeedback: {
		Subject: "New feedback on {post_title}",
		Body:    "Hi {recipient}, {feedback_author} left feedback on \"{post_title}\": {post_link}",
	},
	TemplateOverdueReminder: {
		Subject: "Overdue reminder for pending review posts",
		Body:    "Hi {recipient}, the review of \"{post_title}\" is overdue. Please take immediate action: {post_link}",
	},
}

// Registry 模板注册表
type Registry struct {
	templates map[string]Template
}

// NewRegistry 创建模板注册表,以默认模板打底
func NewRegistry() *Registry {
	templates := make(map[string]Template, len(defaultTemplates))
	for key, tpl := range defaultTemplates {
		templates[key] = tpl
	}
	return &Registry{templates: templates}
}

// Override 覆盖指定模板,空字段保持默认值
func (r *Registry) Override(key string, subject string, body string) {
	tpl := r.templates[key]
	if subject != "" {
		tpl.Subject = subject
	}
	if body != "" {
		tpl.Body = body
	}
	r.templates[key] = tpl
}

// Render 渲染模板,未知模板键返回 false
func (r *Registry) Render(key string, vars map[string]string) (subject string, body string, ok bool) {
	tpl, found := r.templates[key]
	if !found {
		return "", "", false
	}
	return substitute(tpl.Subject, vars), substitute(tpl.Body, vars), true
}

// substitute 替换 {name} 占位符,未提供的变量保留原样
func substitute(s string, vars map[string]string) string {
	if len(vars) == 0 {
		return s
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
