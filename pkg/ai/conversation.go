package ai

import (
	"strings"
	"time"
)

// SystemPrompt is the fixed instruction message every conversation starts with.
var SystemPrompt = strings.Join([]string{
	"你是一个轻量级终端AI助手，具有以下能力:",
	"1. 回答用户的技术问题，尤其擅长Linux/命令行/编程相关问题",
	"2. 提供命令行建议，并可以直接执行命令",
	"3. 生成代码并可以创建文件",
	"保持专业、简洁的回答风格，尽量少用emoji和表情符号。",
	"",
	"输出格式规范：",
	"1. 当提供命令时，使用以下格式：",
	"```命令\n你的命令内容\n```",
	"",
	"2. 当提供脚本时，务必指定语言类型，使用以下格式：",
	"```python\n你的Python代码\n```",
	"```javascript\n你的JavaScript代码\n```",
	"```bash\n你的Bash脚本\n```",
	"始终在代码块中明确注明语言类型，以便正确识别。",
}, "\n")

// Conversation is the ordered, append-only message log of a session.
// Element 0 is always the system message.
type Conversation struct {
	messages []Message
}

// NewConversation returns a conversation holding only the system message.
func NewConversation() *Conversation {
	return &Conversation{
		messages: []Message{{Role: RoleSystem, Content: SystemPrompt}},
	}
}

// Append adds a message to the end of the conversation. A zero timestamp is
// filled with the current time.
func (c *Conversation) Append(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.messages = append(c.messages, msg)
}

// Messages returns a copy of the conversation.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages including the system message.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() Message {
	return c.messages[len(c.messages)-1]
}
