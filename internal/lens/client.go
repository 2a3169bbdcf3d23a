package lens

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"OpenLens-Chain/internal/cache"
	xerrors "OpenLens-Chain/internal/errors"
	"OpenLens-Chain/internal/signer"
	"OpenLens-Chain/pkg/logger"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultPageLimit  = 50
	txPollInterval    = 2 * time.Second
	txPollMaxAttempts = 150
	channelOnchain    = "onchain"
	channelMomoka     = "momoka"
)

// errAbsent 标记远端明确返回"对象不存在"。
var errAbsent = stdErrors.New("remote object absent")

// Config 描述访问发布网络 API 所需的信息。
type Config struct {
	BaseURL   string
	ProfileID string
	Timeout   time.Duration
}

// Client 是发布网络的接入客户端：负责会话认证、对象读取与
// 发布提交。所有读取都先查缓存，网络取回后立即回填缓存。
type Client struct {
	baseURL    string
	profileID  string
	httpClient *http.Client
	account    *signer.Account
	cache      cache.Store
	log        *slog.Logger

	// 会话状态。互斥锁同时充当认证单飞闸门：
	// 并发调用方汇合在一次进行中的认证上，而不是各自发起挑战。
	mu            sync.Mutex
	authenticated bool
	profile       *Profile
}

// NewClient 创建客户端。account 提供签名能力，store 承载对象缓存。
func NewClient(cfg Config, account *signer.Account, store cache.Store) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, stdErrors.New("未配置发布网络 API 地址")
	}
	if strings.TrimSpace(cfg.ProfileID) == "" {
		return nil, stdErrors.New("未配置档案 ID")
	}
	if account == nil {
		return nil, stdErrors.New("未提供签名账户")
	}
	if store == nil {
		store = cache.NewMemoryStore()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		profileID:  cfg.ProfileID,
		httpClient: &http.Client{Timeout: timeout},
		account:    account,
		cache:      store,
		log:        logger.Named("lens"),
	}, nil
}

// ProfileID 返回客户端绑定的档案 ID。
func (c *Client) ProfileID() string {
	return c.profileID
}

// Address 返回签名账户地址。
func (c *Client) Address() string {
	return c.account.Address()
}

// Publication 按 ID 读取发布。缓存优先；远端不存在时返回 (nil, nil)。
func (c *Client) Publication(ctx context.Context, id string) (*Publication, error) {
	key := cache.Key("publication", id)
	if cached, ok := c.cachedPublication(ctx, key); ok {
		return cached, nil
	}

	var remote remotePublication
	err := c.post(ctx, "/publication/fetch", map[string]any{"forId": id}, &remote)
	if stdErrors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeFetchFailed, err, "读取发布失败")
	}
	if remote.ID == "" {
		return nil, nil
	}
	pub := remote.project()
	c.cachePublication(ctx, pub)
	return &pub, nil
}

// PublicationByTxHash 按交易哈希读取发布。不存在时返回 (nil, nil)。
func (c *Client) PublicationByTxHash(ctx context.Context, txHash string) (*Publication, error) {
	var remote remotePublication
	err := c.post(ctx, "/publication/fetch", map[string]any{"forTxHash": txHash}, &remote)
	if stdErrors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeFetchFailed, err, "按交易哈希读取发布失败")
	}
	if remote.ID == "" {
		return nil, nil
	}
	pub := remote.project()
	c.cachePublication(ctx, pub)
	return &pub, nil
}

// Profile 按 ID 读取档案投影。缓存优先。
func (c *Client) Profile(ctx context.Context, profileID string) (*Profile, error) {
	key := cache.Key("profile", profileID)
	if value, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var profile Profile
		if json.Unmarshal([]byte(value), &profile) == nil {
			return &profile, nil
		}
	}

	var remote remoteProfile
	if err := c.post(ctx, "/profile/fetch", map[string]any{"forProfileId": profileID}, &remote); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeFetchFailed, err, "读取档案失败")
	}
	if remote.ID == "" {
		return nil, xerrors.New(xerrors.CodeNotFound, fmt.Sprintf("档案 %s 不存在", profileID))
	}
	profile := remote.project()
	if encoded, err := json.Marshal(profile); err == nil {
		if err := c.cache.Set(ctx, key, string(encoded)); err != nil {
			c.log.Warn("回填档案缓存失败", slog.Any("error", err), slog.String("profile_id", profileID))
		}
	}
	return &profile, nil
}

// PublicationsFor 分页拉取指定作者的根帖，逐条回填缓存。
// 返回数量可能超出 limit 至多一页。
func (c *Client) PublicationsFor(ctx context.Context, profileID string, limit int) ([]Publication, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return CollectPages(ctx, limit, func(ctx context.Context, cursor string) ([]Publication, string, error) {
		var page struct {
			Items []remotePublication `json:"items"`
			Next  string              `json:"next"`
		}
		payload := map[string]any{
			"from":             profileID,
			"publicationTypes": []string{"POST"},
			"limit":            defaultPageLimit,
		}
		if cursor != "" {
			payload["cursor"] = cursor
		}
		if err := c.post(ctx, "/publication/fetchAll", payload, &page); err != nil {
			return nil, "", xerrors.Wrap(xerrors.CodeFetchFailed, err, "拉取发布列表失败")
		}
		items := make([]Publication, 0, len(page.Items))
		for _, remote := range page.Items {
			pub := remote.project()
			c.cachePublication(ctx, pub)
			items = append(items, pub)
		}
		return items, page.Next, nil
	})
}

// Timeline 拉取智能体的主页时间线（已加密条目跳过），上界为 limit。
func (c *Client) Timeline(ctx context.Context, limit int) ([]Publication, error) {
	if err := c.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	timeline, err := CollectPages(ctx, limit, func(ctx context.Context, cursor string) ([]Publication, string, error) {
		var page struct {
			Items []struct {
				Root remotePublication `json:"root"`
			} `json:"items"`
			Next string `json:"next"`
		}
		payload := map[string]any{
			"for":                c.profileID,
			"feedEventItemTypes": []string{"POST"},
		}
		if cursor != "" {
			payload["cursor"] = cursor
		}
		if err := c.post(ctx, "/feed/fetch", payload, &page); err != nil {
			return nil, "", xerrors.Wrap(xerrors.CodeFetchFailed, err, "拉取时间线失败")
		}
		items := make([]Publication, 0, len(page.Items))
		for _, item := range page.Items {
			if item.Root.IsEncrypted {
				continue
			}
			pub := item.Root.project()
			c.cachePublication(ctx, pub)
			items = append(items, pub)
		}
		return items, page.Next, nil
	})
	if err != nil {
		return nil, err
	}
	if len(timeline) > limit {
		timeline = timeline[:limit]
	}
	return timeline, nil
}

// Mentions 拉取指向智能体的提及与评论通知，按到达顺序返回。
func (c *Client) Mentions(ctx context.Context, limit int) ([]Publication, error) {
	if err := c.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return CollectPages(ctx, limit, func(ctx context.Context, cursor string) ([]Publication, string, error) {
		var page struct {
			Items []struct {
				Publication *remotePublication `json:"publication"`
				Comment     *remotePublication `json:"comment"`
			} `json:"items"`
			Next string `json:"next"`
		}
		payload := map[string]any{
			"notificationTypes": []string{"MENTIONED", "COMMENTED"},
		}
		if cursor != "" {
			payload["cursor"] = cursor
		}
		if err := c.post(ctx, "/notifications/fetch", payload, &page); err != nil {
			return nil, "", xerrors.Wrap(xerrors.CodeFetchFailed, err, "拉取通知失败")
		}
		items := make([]Publication, 0, len(page.Items))
		for _, item := range page.Items {
			remote := item.Publication
			if remote == nil {
				remote = item.Comment
			}
			if remote == nil || remote.IsEncrypted {
				continue
			}
			pub := remote.project()
			c.cachePublication(ctx, pub)
			items = append(items, pub)
		}
		return items, page.Next, nil
	})
}

// RelayPublish 走代发通道直接提交发布（signless 档案专用）。
func (c *Client) RelayPublish(ctx context.Context, contentURI, commentOn string, onchain bool) (*BroadcastResult, error) {
	path := "/publication/post"
	payload := map[string]any{
		"contentURI": contentURI,
		"channel":    channelName(onchain),
	}
	if commentOn != "" {
		path = "/publication/comment"
		payload["commentOn"] = commentOn
	}
	var result BroadcastResult
	if err := c.post(ctx, path, payload, &result); err != nil {
		return nil, xerrors.Wrap(CodeBroadcastFailed, err, "代发提交失败")
	}
	return &result, nil
}

// CreateTypedData 请求远端为发布操作构造未签名的 typed data。
func (c *Client) CreateTypedData(ctx context.Context, contentURI, commentOn string, onchain bool) (*TypedDataEnvelope, error) {
	path := "/publication/post/typed-data"
	payload := map[string]any{
		"contentURI": contentURI,
		"channel":    channelName(onchain),
	}
	if commentOn != "" {
		path = "/publication/comment/typed-data"
		payload["commentOn"] = commentOn
	}
	var envelope TypedDataEnvelope
	if err := c.post(ctx, path, payload, &envelope); err != nil {
		return nil, xerrors.Wrap(CodeTypedDataFailed, err, "构造 typed data 失败")
	}
	if envelope.ID == "" {
		return nil, xerrors.New(CodeTypedDataFailed, "typed data 响应缺少 ID")
	}
	return &envelope, nil
}

// Broadcast 将签名连同 typed data ID 提交广播。
func (c *Client) Broadcast(ctx context.Context, id, signature string, onchain bool) (*BroadcastResult, error) {
	var result BroadcastResult
	payload := map[string]any{
		"id":        id,
		"signature": signature,
		"channel":   channelName(onchain),
	}
	if err := c.post(ctx, "/transaction/broadcast", payload, &result); err != nil {
		return nil, xerrors.Wrap(CodeBroadcastFailed, err, "广播签名失败")
	}
	return &result, nil
}

// TransactionStatus 查询一次交易状态。
func (c *Client) TransactionStatus(ctx context.Context, txHash string) (*TransactionStatus, error) {
	var status TransactionStatus
	if err := c.post(ctx, "/transaction/status", map[string]any{"forTxHash": txHash}, &status); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeFetchFailed, err, "查询交易状态失败")
	}
	return &status, nil
}

// WaitForTransaction 轮询交易状态直到终态或轮询次数耗尽。
func (c *Client) WaitForTransaction(ctx context.Context, txHash string) (*TransactionStatus, error) {
	for attempt := 0; attempt < txPollMaxAttempts; attempt++ {
		status, err := c.TransactionStatus(ctx, txHash)
		if err != nil {
			return nil, err
		}
		switch status.Status {
		case TxStatusComplete, TxStatusFailed:
			return status, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(txPollInterval):
		}
	}
	return nil, xerrors.New(CodeTransactionPending, fmt.Sprintf("交易 %s 未在轮询窗口内完成", txHash))
}

func channelName(onchain bool) string {
	if onchain {
		return channelOnchain
	}
	return channelMomoka
}

func (c *Client) cachedPublication(ctx context.Context, key string) (*Publication, bool) {
	value, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var pub Publication
	if err := json.Unmarshal([]byte(value), &pub); err != nil {
		return nil, false
	}
	return &pub, true
}

func (c *Client) cachePublication(ctx context.Context, pub Publication) {
	encoded, err := json.Marshal(pub)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cache.Key("publication", pub.ID), string(encoded)); err != nil {
		c.log.Warn("回填发布缓存失败", slog.Any("error", err), slog.String("publication_id", pub.ID))
	}
}

// post 发送 JSON POST 请求并解码响应。404 映射为 errAbsent。
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errAbsent
	}
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s 返回错误状态 %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析 %s 响应失败: %w", path, err)
	}
	return nil
}
