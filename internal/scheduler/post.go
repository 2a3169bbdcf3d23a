package scheduler

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"math/rand"
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
	"OpenLens-Chain/pkg/logger"
)

// 自主发帖的抖动区间。
const (
	postIntervalMin = 1 * time.Hour
	postIntervalMax = 4 * time.Hour
)

// PostScheduler 驱动智能体的自主发帖循环：
// 启动时立即执行第一轮，之后每轮随机等待 1 到 4 小时，
// 读取时间线、生成并提交一篇根帖。
// 任何一轮失败都会告警并停止循环，由运维介入后重启进程恢复。
type PostScheduler struct {
	client    *lens.Client
	pipeline  *publish.Pipeline
	generator llm.Generator
	persona   *persona.Persona
	memory    memory.Repository
	alerts    alerting.Dispatcher
	settings  config.SettingLookup
	log       *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

// NewPostScheduler 创建自主发帖调度器。
func NewPostScheduler(
	client *lens.Client,
	pipeline *publish.Pipeline,
	generator llm.Generator,
	p *persona.Persona,
	repo memory.Repository,
	alerts alerting.Dispatcher,
	settings config.SettingLookup,
) (*PostScheduler, error) {
	if client == nil || pipeline == nil || generator == nil || p == nil || repo == nil {
		return nil, stdErrors.New("自主发帖调度器依赖不完整")
	}
	return &PostScheduler{
		client:    client,
		pipeline:  pipeline,
		generator: generator,
		persona:   p,
		memory:    repo,
		alerts:    alerts,
		settings:  settings,
		log:       logger.Named("post_loop"),
	}, nil
}

// Start 启动发帖循环。重复调用是无操作。
func (s *PostScheduler) Start(ctx context.Context) {
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
func (s *PostScheduler) Stop() {
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

func (s *PostScheduler) run(ctx context.Context, stop <-chan struct{}) {
	defer close(s.stopped)
	for {
		if err := s.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("发帖循环失败，循环停止", slog.Any("error", err))
			if s.alerts != nil {
				_ = s.alerts.Notify(ctx, alerting.FromError("post", err))
			}
			return
		}

		delay := nextPostDelay()
		s.log.Info("下一轮发帖已排期", slog.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-time.After(delay):
		}
	}
}

// tick 执行一轮发帖。
func (s *PostScheduler) tick(ctx context.Context) error {
	profileID := s.client.ProfileID()
	profile, err := s.client.Profile(ctx, profileID)
	if err != nil {
		return err
	}

	roomID := memory.RoomID("lens-home-" + profileID)
	displayName := profile.DisplayName
	if displayName == "" {
		displayName = profile.Handle
	}
	if err := s.memory.EnsureParticipant(ctx, memory.UserID(profileID), roomID, displayName, memory.SourceLens); err != nil {
		return err
	}

	timeline, err := s.client.Timeline(ctx, 10)
	if err != nil {
		return err
	}

	prompt := s.persona.ComposePostContext(profile.Handle, timeline)
	text, err := s.generator.Generate(ctx, llm.Request{Context: prompt, Quality: llm.QualitySmall})
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.log.Warn("生成的发帖内容为空，本轮跳过")
		return nil
	}

	if dryRunEnabled(s.settings) {
		s.log.Info("试运行模式，跳过提交", slog.String("text", text))
		return nil
	}

	pub, err := s.pipeline.Publish(ctx, text, roomID, "")
	if err != nil {
		return err
	}
	if pub == nil {
		s.log.Info("发帖已受理，等待网络确认")
		return nil
	}

	if err := s.memory.Create(ctx, memory.FromPublication(*pub, profileID, roomID)); err != nil {
		return err
	}
	logger.Audit().Info("自主发帖完成",
		slog.String("publication_id", pub.ID),
		slog.String("profile_id", profileID),
	)
	return nil
}

// nextPostDelay 在抖动区间内均匀取一个等待时长。
func nextPostDelay() time.Duration {
	span := postIntervalMax - postIntervalMin
	return postIntervalMin + time.Duration(rand.Int63n(int64(span)))
}
