package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"xhs-insight/models"
)

// DefaultPromptSample is how many posts are sent to the model by default.
const DefaultPromptSample = 200

type promptRow struct {
	Row   int    `json:"row"`
	Title string `json:"title"`
	Likes int    `json:"likes"`
}

const promptHeader = `你是一位有十年经验的小红书运营操盘手，现任头部社媒咨询公司的策略合伙人。
请根据下面的笔记数据，写一份咨询公司水准的《账号战略审计报告》。

数据上下文（前 %d 条，row 为表格行号）：
%s
`

const promptBody = `
### 输出结构

1. **人设资产与定位审计**
   - 使用 Markdown 二级标题。
   - 给出流量层级（计算点赞中位数并归类为头部/腰部/尾部）。
   - 定义人设标签，描述内容赛道细分与受众画像。

2. **增长曲线复盘**
   - 找出至少一个关键爆发节点或风格转型期，并引用具体行号。
   - 说明账号如何从原始内容走向标准化产出。

3. **爆款基因拆解**
   - 深度拆解点赞最高的 3 篇笔记，总结标题钩子与选题冲突点。
   - 点名点赞数与标题夸张程度不符的“标题党”笔记。

4. **执行路线图**
   - 给出 3 条执行建议，每条包含核心动作、预期效果、避坑提示。

### 语气
- 专业、犀利，有商业洞察，多用数据支撑，拒绝空话。
- 适当使用 Emoji（📊 🚀 💡 🚩）。
- 引用数据时注明（对应表格第 X 行）。
`

// BuildPrompt renders the report prompt for the first sample posts.
// A non-positive sample falls back to DefaultPromptSample.
func BuildPrompt(posts []*models.CleanPost, sample int) (string, error) {
	if sample <= 0 {
		sample = DefaultPromptSample
	}
	if len(posts) > sample {
		posts = posts[:sample]
	}

	rows := make([]promptRow, len(posts))
	for i, p := range posts {
		rows[i] = promptRow{Row: p.ID, Title: p.Title, Likes: p.Likes}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("prompt: encode rows: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, sample, data)
	b.WriteString(promptBody)
	return b.String(), nil
}
