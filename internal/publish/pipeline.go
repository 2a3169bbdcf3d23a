package publish

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"OpenLens-Chain/internal/content"
	xerrors "OpenLens-Chain/internal/errors"
	"OpenLens-Chain/internal/events"
	"OpenLens-Chain/internal/lens"
	"OpenLens-Chain/internal/signer"
	"OpenLens-Chain/pkg/logger"
)

// Pipeline 负责把一段文本变成网络上的一篇发布：
// 内容规范化 → 固定存储 → 按档案能力选择直发或签名广播 → 结果解析。
type Pipeline struct {
	client  *lens.Client
	account *signer.Account
	pinner  content.Pinner
	bus     events.Bus
	log     *slog.Logger
}

// NewPipeline 创建发布管线。bus 允许为 nil，此时不投递事件。
func NewPipeline(client *lens.Client, account *signer.Account, pinner content.Pinner, bus events.Bus) (*Pipeline, error) {
	if client == nil {
		return nil, stdErrors.New("未提供发布网络客户端")
	}
	if account == nil {
		return nil, stdErrors.New("未提供签名账户")
	}
	if pinner == nil {
		return nil, stdErrors.New("未提供内容固定服务")
	}
	return &Pipeline{
		client:  client,
		account: account,
		pinner:  pinner,
		bus:     bus,
		log:     logger.Named("publish"),
	}, nil
}

// Publish 提交一篇发布。parentID 为空表示根帖，非空表示对其的评论。
// 广播被接受但发布尚不可读时返回 (nil, nil)：提交本身已成功，
// 不应被当作失败重试。
func (p *Pipeline) Publish(ctx context.Context, text, roomID, parentID string) (*lens.Publication, error) {
	envelope := content.TextOnly(text)
	contentURI, err := p.pinner.Pin(ctx, envelope)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodePublishFailed, err, "固定发布内容失败")
	}

	if err := p.client.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}
	profile := p.client.AuthenticatedProfile()
	if profile == nil {
		return nil, xerrors.New(xerrors.CodePublishFailed, "认证档案不可用")
	}

	var result *lens.BroadcastResult
	if profile.Signless {
		result, err = p.client.RelayPublish(ctx, contentURI, parentID, false)
	} else {
		result, err = p.signedBroadcast(ctx, contentURI, parentID)
	}
	if err != nil {
		return nil, err
	}

	pub, err := p.resolve(ctx, result)
	if err != nil {
		return nil, err
	}
	if pub == nil {
		p.log.Info("广播已受理，发布暂不可读",
			slog.String("broadcast_id", result.ID),
			slog.String("tx_hash", result.TxHash),
		)
		return nil, nil
	}

	p.emit(ctx, *pub, roomID)
	return pub, nil
}

// signedBroadcast 走 typed data 签名通道提交发布。
func (p *Pipeline) signedBroadcast(ctx context.Context, contentURI, parentID string) (*lens.BroadcastResult, error) {
	envelope, err := p.client.CreateTypedData(ctx, contentURI, parentID, false)
	if err != nil {
		return nil, err
	}
	primaryType := "Post"
	if parentID != "" {
		primaryType = "Comment"
	}
	typedData, err := envelope.EIP712(primaryType)
	if err != nil {
		return nil, xerrors.Wrap(lens.CodeTypedDataFailed, err, "转换 typed data 失败")
	}
	signature, err := p.account.SignTypedData(typedData)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodePublishFailed, err, "签名 typed data 失败")
	}
	return p.client.Broadcast(ctx, envelope.ID, signature, false)
}

// resolve 把广播回执解析为可读的发布对象。广播本身已被受理，
// 因此任何"解析不出发布"的结局都映射为 (nil, nil) 而不是错误：
// 交易失败、轮询窗口耗尽、空回执都算无结果，只有传输层故障才报错。
func (p *Pipeline) resolve(ctx context.Context, result *lens.BroadcastResult) (*lens.Publication, error) {
	switch {
	case result == nil || result.Empty():
		return nil, nil
	case result.ID != "":
		pub, err := p.client.Publication(ctx, result.ID)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeResolutionFailed, err, "按回执 ID 读取发布失败")
		}
		return pub, nil
	default:
		status, err := p.client.WaitForTransaction(ctx, result.TxHash)
		if err != nil {
			if xerrors.CodeOf(err) == lens.CodeTransactionPending {
				p.log.Warn("交易未在轮询窗口内完成，放弃解析", slog.String("tx_hash", result.TxHash))
				return nil, nil
			}
			return nil, xerrors.Wrap(xerrors.CodeResolutionFailed, err, "等待交易完成失败")
		}
		if status.Status != lens.TxStatusComplete {
			p.log.Warn("交易以失败终态结束，发布不可解析",
				slog.String("tx_hash", result.TxHash),
				slog.String("status", status.Status),
			)
			return nil, nil
		}
		pub, err := p.client.PublicationByTxHash(ctx, result.TxHash)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeResolutionFailed, err, "按交易哈希读取发布失败")
		}
		return pub, nil
	}
}

// emit 投递发布事件。事件通道故障只记日志，不影响发布结果。
func (p *Pipeline) emit(ctx context.Context, pub lens.Publication, roomID string) {
	if p.bus == nil {
		return
	}
	kind := events.KindPost
	if pub.ParentID != "" {
		kind = events.KindReply
	}
	event := events.Event{
		Kind:          kind,
		PublicationID: pub.ID,
		RoomID:        roomID,
		InReplyTo:     pub.ParentID,
		Text:          pub.Text,
		OccurredAt:    time.Now(),
	}
	if err := p.bus.Publish(ctx, event); err != nil {
		p.log.Warn("投递发布事件失败", slog.Any("error", err), slog.String("publication_id", pub.ID))
	}
}
