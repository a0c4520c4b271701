package notify

// 通知模板键
const (
	TemplateAskForReview    = "ask_for_review"
	TemplateApproveReview   = "approve_review"
	TemplateFeedback        = "feedback"
	TemplateOverdueReminder = "overdue_reminder"
)

// 模板变量占位符名
const (
	VarContentID      = "content_id"
	VarPostTitle      = "post_title"
	VarPostLink       = "post_link"
	VarPostAuthor     = "post_author"
	VarAssignee       = "assignee"
	VarRecipient      = "recipient"
	VarFeedbackAuthor = "feedback_author"
)

// Dispatcher 通知分发接口
// 状态机在状态迁移后调用,每个收件人返回一次成功/失败
// 分发失败不回滚状态变更,调用方把失败聚合成一条警告返回给用户
type Dispatcher interface {
	Send(templateKey string, recipient string, vars map[string]string) bool
}

// Fanout 依次调用多个分发器,全部成功才算成功
type Fanout []Dispatcher

// Send 分发到所有下游
func (f Fanout) Send(templateKey string, recipient string, vars map[string]string) bool {
	ok := true
	for _, d := range f {
		if !d.Send(templateKey, recipient, vars) {
			ok = false
		}
	}
	return ok
}

// SendAll 向一组收件人分发同一模板,返回是否全部成功
// 收件人为空时不做任何分发并返回 true,避免发出空收件人的通知
func SendAll(d Dispatcher, templateKey string, recipients []string, vars map[string]string) bool {
	if d == nil || len(recipients) == 0 {
		return true
	}
	ok := true
	for _, recipient := range recipients {
		if recipient == "" {
			continue
		}
		perRecipient := make(map[string]string, len(vars)+1)
		for k, v := range vars {
			perRecipient[k] = v
		}
		perRecipient[VarRecipient] = recipient
		if !d.Send(templateKey, recipient, perRecipient) {
			ok = false
		}
	}
	return ok
}
