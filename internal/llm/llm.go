package llm

import "context"

// Quality 区分推理所用的模型档位。
type Quality string

const (
	QualitySmall Quality = "small"
	QualityLarge Quality = "large"
)

// Decision 是判定型推理的三种结果。
type Decision string

const (
	DecisionRespond Decision = "RESPOND"
	DecisionIgnore  Decision = "IGNORE"
	DecisionStop    Decision = "STOP"
)

// Request 描述发送给大模型的上下文。
type Request struct {
	Context string
	Quality Quality
}

// Generator 定义了调用大模型的统一接口。
type Generator interface {
	// Generate 根据上下文生成一段文本。
	Generate(ctx context.Context, req Request) (string, error)
	// Decide 根据上下文判定是否回应，返回 RESPOND、IGNORE 或 STOP。
	Decide(ctx context.Context, req Request) (Decision, error)
}
