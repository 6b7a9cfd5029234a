// Package narrative produces the five-section analysis text for a prediction:
// main issues, crystal name/reason pairs, wearing advice, expected effects,
// and additional advice.
//
// The primary path asks an OpenAI-compatible completion service; on any
// failure (timeout, HTTP error, empty response) it substitutes a local
// generator built from the same rule tables. The fallback is a complete
// alternate implementation of the same contract, not a degraded stub, so a
// prediction never aborts on this dependency.
package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pzyt/crystal-healing/internal/domain"
)

const (
	defaultBaseURL = "https://cloud.siliconflow.cn/v1"
	defaultModel   = "deepseek-ai/DeepSeek-V3"
	defaultTimeout = 30 * time.Second

	systemPersona = "你是一位专业的水晶疗愈师和八字命理师，能够根据用户的八字分析结果推荐最适合的水晶组合。请以专业、准确、温暖的语调回复。"

	// SourceRemote and SourceLocal tag which path produced a narrative.
	SourceRemote = "siliconflow"
	SourceLocal  = "local"
)

var (
	remoteCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crystal_narrative_remote_calls_total",
		Help: "Completion-service calls attempted.",
	})
	localFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crystal_narrative_local_fallbacks_total",
		Help: "Narratives served by the local generator.",
	})
)

// Config holds the completion-service settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Generator produces narratives. With no API key configured every request is
// served locally.
type Generator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

// NewGenerator builds a Generator. log may not be nil.
func NewGenerator(cfg Config, log *zap.Logger) *Generator {
	g := &Generator{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     log,
		now:     time.Now,
	}
	if g.model == "" {
		g.model = defaultModel
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		clientCfg.BaseURL = cfg.BaseURL
		if clientCfg.BaseURL == "" {
			clientCfg.BaseURL = defaultBaseURL
		}
		g.client = openai.NewClientWithConfig(clientCfg)
	}
	return g
}

// Generate returns the narrative for one prediction. It never fails: any
// remote error is logged and answered by the local generator.
func (g *Generator) Generate(ctx context.Context, chart domain.BirthChart, analysis domain.ElementAnalysis, fortune domain.FortuneScore, displayName string) domain.Narrative {
	if g.client == nil {
		localFallbacks.Inc()
		return GenerateLocal(chart, analysis, fortune, g.now())
	}

	remoteCalls.Inc()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPersona},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(chart, analysis, fortune, displayName)},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		g.log.Warn("completion service failed, using local narrative", zap.Error(err))
		localFallbacks.Inc()
		return GenerateLocal(chart, analysis, fortune, g.now())
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		g.log.Warn("completion service returned empty response, using local narrative")
		localFallbacks.Inc()
		return GenerateLocal(chart, analysis, fortune, g.now())
	}

	narrative := parseNarrative(resp.Choices[0].Message.Content)
	narrative.Source = SourceRemote
	return narrative
}

// buildPrompt renders the structured analysis prompt. Extraction keywords in
// the requested format are the same ones parseNarrative scans for.
func buildPrompt(chart domain.BirthChart, analysis domain.ElementAnalysis, fortune domain.FortuneScore, displayName string) string {
	var b strings.Builder
	b.WriteString("请根据以下八字分析结果，为用户推荐最适合的水晶组合：\n\n")
	if displayName != "" {
		fmt.Fprintf(&b, "用户称呼：%s\n\n", displayName)
	}

	b.WriteString("八字信息：\n")
	fmt.Fprintf(&b, "- 年柱：%s%s(五行：%s)\n", chart.Year.Stem, chart.Year.Branch, chart.Year.Element.Han())
	fmt.Fprintf(&b, "- 月柱：%s%s(五行：%s)\n", chart.Month.Stem, chart.Month.Branch, chart.Month.Element.Han())
	fmt.Fprintf(&b, "- 日柱：%s%s(五行：%s)\n", chart.Day.Stem, chart.Day.Branch, chart.Day.Element.Han())
	fmt.Fprintf(&b, "- 时柱：%s%s(五行：%s)\n\n", chart.Hour.Stem, chart.Hour.Branch, chart.Hour.Element.Han())

	b.WriteString("五行分析：\n")
	fmt.Fprintf(&b, "- 五行统计：%s\n", formatCounts(analysis.Counts))
	fmt.Fprintf(&b, "- 最强五行：%s\n", analysis.Strongest.Han())
	fmt.Fprintf(&b, "- 最弱五行：%s\n", analysis.Weakest.Han())
	fmt.Fprintf(&b, "- 需要补强：%s\n", joinElementsHan(analysis.Missing))
	fmt.Fprintf(&b, "- 平衡度：%d%%\n\n", analysis.Balance)

	b.WriteString("运势分析：\n")
	fmt.Fprintf(&b, "- 事业运：%d分\n", fortune.Career)
	fmt.Fprintf(&b, "- 财运：%d分\n", fortune.Wealth)
	fmt.Fprintf(&b, "- 健康运：%d分\n", fortune.Health)
	fmt.Fprintf(&b, "- 感情运：%d分\n", fortune.Relationship)
	fmt.Fprintf(&b, "- 总体运势：%d分\n\n", fortune.Overall)

	b.WriteString(`请按照以下格式返回分析结果：

1. 主要问题分析（找出最需要改善的方面）
2. 推荐水晶组合（至少3种水晶，包括中文名和英文名）
3. 佩带建议（具体的佩带方法和注意事项）
4. 疗愈效果预期（预期能改善的具体方面）
5. 额外建议（生活方式或风水布置建议）

请确保推荐的水晶都是常见且容易获取的品种。`)
	return b.String()
}

func formatCounts(counts map[domain.Element]int) string {
	parts := make([]string, 0, len(domain.ElementOrder))
	for _, e := range domain.ElementOrder {
		parts = append(parts, fmt.Sprintf("%s:%d", e.Han(), counts[e]))
	}
	return strings.Join(parts, "、")
}

func joinElementsHan(elements []domain.Element) string {
	if len(elements) == 0 {
		return "无"
	}
	parts := make([]string, 0, len(elements))
	for _, e := range elements {
		parts = append(parts, e.Han())
	}
	return strings.Join(parts, "、")
}
