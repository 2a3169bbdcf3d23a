package lens

import (
	"context"
	"log/slog"

	xerrors "OpenLens-Chain/internal/errors"
)

// EnsureAuthenticated 保证会话已经完成认证，幂等。
// 首次调用执行 挑战 → 签名 → 提交 → 拉取档案 的完整流程，
// 之后的调用直接返回。互斥锁保证并发调用方只触发一次认证。
// 失败向调用方传播，本层不做重试。
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authenticated {
		return nil
	}
	return c.authenticateLocked(ctx)
}

// AuthenticatedProfile 返回认证后的档案；未认证时为 nil。
func (c *Client) AuthenticatedProfile() *Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *Client) authenticateLocked(ctx context.Context) error {
	var challenge struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	err := c.post(ctx, "/authentication/challenge", map[string]any{
		"signedBy": c.account.Address(),
		"for":      c.profileID,
	}, &challenge)
	if err != nil {
		return xerrors.Wrap(CodeChallengeFailed, err, "获取认证挑战失败")
	}
	if challenge.ID == "" || challenge.Text == "" {
		return xerrors.New(CodeChallengeFailed, "认证挑战响应不完整")
	}

	signature, err := c.account.SignMessage(challenge.Text)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeAuthFailed, err, "签名认证挑战失败")
	}

	err = c.post(ctx, "/authentication/authenticate", map[string]any{
		"id":        challenge.ID,
		"signature": signature,
	}, nil)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeAuthFailed, err, "提交认证签名失败")
	}

	var remote remoteProfile
	if err := c.post(ctx, "/profile/fetch", map[string]any{"forProfileId": c.profileID}, &remote); err != nil {
		return xerrors.Wrap(xerrors.CodeAuthFailed, err, "拉取认证档案失败")
	}
	profile := remote.project()
	c.profile = &profile
	c.authenticated = true
	c.log.Info("会话认证完成",
		slog.String("profile_id", c.profileID),
		slog.String("handle", profile.Handle),
		slog.Bool("signless", profile.Signless),
	)
	return nil
}
