package scheduler

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"OpenLens-Chain/internal/config"
	"OpenLens-Chain/internal/lens"
	"OpenLens-Chain/internal/llm"
	"OpenLens-Chain/internal/memory"
	"OpenLens-Chain/internal/observability/alerting"
	"OpenLens-Chain/internal/persona"
	"OpenLens-Chain/internal/publish"
	"OpenLens-Chain/internal/thread"
	"OpenLens-Chain/pkg/logger"
)

// mentionBatchLimit 是单轮处理的提及上限。
const mentionBatchLimit = 25

// InteractionScheduler 驱动提及处理循环：按固定间隔拉取提及与评论，
// 对每条新提及重建会话线索、判定是否回应并提交回复。
// 单条提及的失败只影响该条，轮次失败只影响该轮，循环本身持续运行。
type InteractionScheduler struct {
	client    *lens.Client
	pipeline  *publish.Pipeline
	builder   *thread.Builder
	generator llm.Generator
	persona   *persona.Persona
	memory    memory.Repository
	alerts    alerting.Dispatcher
	settings  config.SettingLookup
	log       *slog.Logger

	mu       sync.Mutex
	stop     chan struct{}
	stopped  chan struct{}
	lastPoll time.Time
}

// NewInteractionScheduler 创建提及处理调度器。
func NewInteractionScheduler(
	client *lens.Client,
	pipeline *publish.Pipeline,
	builder *thread.Builder,
	generator llm.Generator,
	p *persona.Persona,
	repo memory.Repository,
	alerts alerting.Dispatcher,
	settings config.SettingLookup,
) (*InteractionScheduler, error) {
	if client == nil || pipeline == nil || builder == nil || generator == nil || p == nil || repo == nil {
		return nil, stdErrors.New("提及处理调度器依赖不完整")
	}
	return &InteractionScheduler{
		client:    client,
		pipeline:  pipeline,
		builder:   builder,
		generator: generator,
		persona:   p,
		memory:    repo,
		alerts:    alerts,
		settings:  settings,
		log:       logger.Named("interaction_loop"),
	}, nil
}

// Start 启动提及处理循环。重复调用是无操作。
func (s *InteractionScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.run(ctx, s.stop)
}

// Stop 取消后续排期并等待循环退出。进行中的一轮会完整跑完，
// 不做协作式中断。
func (s *InteractionScheduler) Stop() {
	s.mu.Lock()
	stop, stopped := s.stop, s.stopped
	s.stop = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-stopped
}

func (s *InteractionScheduler) run(ctx context.Context, stop <-chan struct{}) {
	defer close(s.stopped)
	interval := pollInterval(s.settings)
	s.log.Info("提及处理循环启动", slog.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("本轮提及处理失败", slog.Any("error", err))
			if s.alerts != nil {
				_ = s.alerts.Notify(ctx, alerting.FromError("interaction", err))
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// tick 拉取并顺序处理一批提及。拉取失败中止本轮；
// 单条处理失败记录后继续下一条。
func (s *InteractionScheduler) tick(ctx context.Context) error {
	mentions, err := s.client.Mentions(ctx, mentionBatchLimit)
	if err != nil {
		return err
	}
	for _, mention := range mentions {
		if err := s.handleMention(ctx, mention); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("处理提及失败",
				slog.Any("error", err),
				slog.String("publication_id", mention.ID),
			)
		}
	}
	// 水位线只在整轮跑完后推进。
	s.mu.Lock()
	s.lastPoll = time.Now()
	s.mu.Unlock()
	return nil
}

// LastPoll 返回最近一轮完整处理结束的时间。
func (s *InteractionScheduler) LastPoll() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPoll
}

func (s *InteractionScheduler) handleMention(ctx context.Context, mention lens.Publication) error {
	profileID := s.client.ProfileID()

	// 已处理过、自己发的、没有正文的提及直接跳过。
	recordID := memory.RecordID(mention.ID, profileID)
	if _, err := s.memory.GetByID(ctx, recordID); err == nil {
		return nil
	} else if !stdErrors.Is(err, memory.ErrRecordNotFound) {
		return err
	}
	if mention.AuthorID == profileID {
		return nil
	}
	if strings.TrimSpace(mention.Text) == "" {
		s.log.Debug("提及没有文本内容，跳过", slog.String("publication_id", mention.ID))
		return nil
	}

	roomID := memory.RoomID(mention.ID + "-" + profileID)
	displayName := mention.AuthorDisplayName
	if displayName == "" {
		displayName = mention.AuthorHandle
	}
	if err := s.memory.EnsureParticipant(ctx, memory.UserID(mention.AuthorID), roomID, displayName, memory.SourceLens); err != nil {
		return err
	}

	conversation, err := s.builder.Build(ctx, mention)
	if err != nil {
		return err
	}

	agent := s.client.AuthenticatedProfile()
	handle := ""
	if agent != nil {
		handle = agent.Handle
	}

	decisionPrompt := s.persona.ComposeDecisionContext(handle, conversation)
	decision, err := s.generator.Decide(ctx, llm.Request{Context: decisionPrompt, Quality: llm.QualitySmall})
	if err != nil {
		return err
	}
	if decision != llm.DecisionRespond {
		s.log.Info("提及无需回应",
			slog.String("publication_id", mention.ID),
			slog.String("decision", string(decision)),
		)
		return nil
	}

	replyPrompt := s.persona.ComposeReplyContext(handle, conversation)
	text, err := s.generator.Generate(ctx, llm.Request{Context: replyPrompt, Quality: llm.QualityLarge})
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.log.Warn("生成的回复为空，跳过", slog.String("publication_id", mention.ID))
		return nil
	}

	if dryRunEnabled(s.settings) {
		s.log.Info("试运行模式，跳过回复提交",
			slog.String("publication_id", mention.ID),
			slog.String("text", text),
		)
		return nil
	}

	reply, err := s.pipeline.Publish(ctx, text, roomID, mention.ID)
	if err != nil {
		return err
	}
	if reply == nil {
		s.log.Info("回复已受理，等待网络确认", slog.String("in_reply_to", mention.ID))
		return nil
	}

	record := memory.FromPublication(*reply, profileID, roomID)
	record.Action = "REPLY"
	if err := s.memory.Create(ctx, record); err != nil {
		return err
	}
	logger.Audit().Info("已回复提及",
		slog.String("publication_id", reply.ID),
		slog.String("in_reply_to", mention.ID),
	)
	return nil
}
